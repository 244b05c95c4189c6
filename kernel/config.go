package kernel

import (
	"context"
	"fmt"
	"git.sr.ht/~aondrejcak/finops-api/models"
	"git.sr.ht/~aondrejcak/finops-api/workflow"
	"github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/matthewhartstonge/argon2"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
	"log"
	"os"
	"sync"
	"time"
)

var (
	once       sync.Once
	appRuntime *AppRuntime
)

type AppRuntime struct {
	Host string

	ServiceName           string
	ServiceVersion        string
	DeploymentEnvironment string

	DatabaseDSN    string
	DatabaseClient *gorm.DB

	RedisAddr   string
	RedisClient *redis.Client

	JaegerEndpoint     string
	PrometheusEndpoint string
	Insecure           bool

	// finance-operations backend (bills, payment sources, payouts, exports)
	ClientID              string
	ClientSecret          string
	FoEnv                 string
	FoUrl                 string
	CountryCode           string
	RedirectUri           string
	CodeChallenge         string
	CodeChallengeVerifier string

	Diagnostic *AppDiagnostic

	Workflows *workflow.Registry

	Context context.Context

	// Admin JWT
	Realm       string
	IdentityKey string
	SecretKey   []byte
	JWT         *jwt.GinJWTMiddleware
}

func LoadConfig() *AppRuntime {
	once.Do(func() {
		appEnv := os.Getenv("API_ENV")
		if appEnv == "" {
			appEnv = "development"
		}

		var env map[string]string
		env, err := godotenv.Read(".env." + appEnv)
		if err != nil {
			log.Fatal(err)
		}

		appRuntime = &AppRuntime{
			Host:        env["HOST"],
			DatabaseDSN: env["DATABASE_DSN"],
			RedisAddr:   env["REDIS_ADDR"],

			ServiceName:           env["SERVICE_NAME"],
			ServiceVersion:        env["SERVICE_VERSION"],
			DeploymentEnvironment: env["DEPLOY_ENV"],

			JaegerEndpoint:     env["JAEGER_ENDPOINT"],
			PrometheusEndpoint: env["PROMETHEUS_ENDPOINT"],
			Insecure:           env["INSECURE"] == "true",

			ClientID:              env["FO_API_CLIENT_ID"],
			ClientSecret:          env["FO_API_CLIENT_SECRET"],
			FoEnv:                 env["FO_API_ENV"],
			FoUrl:                 fmt.Sprintf("https://api.finops.tadam.space/%s", env["FO_API_ENV"]),
			CountryCode:           env["FO_COUNTRY_CODE"],
			RedirectUri:           env["FO_REDIRECT_URI"],
			CodeChallenge:         env["FO_CODE_CHALLENGE"],
			CodeChallengeVerifier: env["FO_CODE_CHALLENGE_VERIFIER"],

			Diagnostic: &AppDiagnostic{
				Tracer: otel.Tracer(env["SERVICE_NAME"] + "-tracer"),
				Meter:  otel.Meter(env["SERVICE_NAME"] + "-meter"),
			},

			Realm:       env["SEC_JWT_REALM"],
			IdentityKey: env["SEC_JWT_IDENTITY_KEY"],
			SecretKey:   []byte(env["SEC_JWT_SECRET_KEY"]),
		}

		if appRuntime.CountryCode == "" {
			appRuntime.CountryCode = "UG"
		}

		appRuntime.Workflows = workflow.NewRegistry()

		appRuntime.JWT, err = jwt.New(&jwt.GinJWTMiddleware{
			Realm:       appRuntime.Realm,
			Key:         appRuntime.SecretKey,
			IdentityKey: appRuntime.IdentityKey,
			Timeout:     time.Hour * 24 * 14, // 2 weeks
			Authenticator: func(c *gin.Context) (interface{}, error) {
				var dto struct {
					Email    string `json:"email"`
					Password string `json:"password"`
				}
				if err := c.ShouldBindJSON(&dto); err != nil {
					return nil, jwt.ErrMissingLoginValues
				}

				var admin models.Admin
				tx := appRuntime.DatabaseClient.Where("email = ?", dto.Email).First(&admin)
				if tx.Error != nil {
					return nil, jwt.ErrFailedAuthentication
				}

				ok, err := argon2.VerifyEncoded([]byte(dto.Password), []byte(admin.PasswordHash))
				if err != nil || !ok {
					return nil, jwt.ErrFailedAuthentication
				}
				return &admin, nil
			},
			PayloadFunc: func(data interface{}) jwt.MapClaims {
				if admin, ok := data.(*models.Admin); ok {
					return jwt.MapClaims{
						appRuntime.IdentityKey: admin.Email,
						"role":                 admin.Role,
					}
				}
				return jwt.MapClaims{}
			},
			Authorizator: func(data interface{}, c *gin.Context) bool {
				claims := jwt.ExtractClaims(c)
				role, _ := claims["role"].(string)
				if c.Request.Method == "GET" {
					return role == "ro" || role == "admin"
				}
				return role == "admin"
			},
		})
		if err != nil {
			log.Fatal(err)
		}
	})
	return appRuntime
}
