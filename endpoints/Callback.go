package endpoints

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/models"
	u "git.sr.ht/~aondrejcak/finops-api/utils"
	"github.com/gin-gonic/gin"
	"go.nhat.io/otelsql/attribute"
	"gorm.io/gorm"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type CallbackModel struct {
	Code  string `json:"code" binding:"required"`
	State string `json:"state" binding:"required"`
}

type callbackTokens struct {
	AccessToken  string
	RefreshToken string
	CsrfToken    string
}

func getAccessToken(art *kernel.AppRuntime, ctx context.Context, code string) (*callbackTokens, error) {
	spanCtx, span := art.Diagnostic.Tracer.Start(ctx, "callback.get")
	defer span.End()

	foUrl := fmt.Sprintf("%s/oauth/v2/token", art.FoUrl)

	client := &http.Client{}

	_, foSpan := art.Diagnostic.Tracer.Start(spanCtx, "callback.get.request")

	bodyParams := url.Values{}
	bodyParams.Set("code", code)
	bodyParams.Set("grant_type", "authorization_code")
	bodyParams.Set("redirect_uri", art.RedirectUri)
	bodyParams.Set("scope", "FINOPS_OPERATE")
	bodyParams.Set("code_verifier", art.CodeChallengeVerifier)

	r, err := http.NewRequest(http.MethodPost, foUrl, strings.NewReader(bodyParams.Encode()))
	if err != nil {
		return nil, u.SpanErrf(foSpan, "failed to create request: %v", err)
	}

	authHeader := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%s", art.ClientID, art.ClientSecret)))
	r.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Add("Authorization", "Basic "+authHeader)

	rsp, err := client.Do(r)
	if err != nil {
		return nil, u.SpanErrf(foSpan, "failed to exec request: %v", err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		return nil, u.SpanHttpErrf(foSpan, rsp, "finops backend returned a non-OK status code: %s", rsp.Status)
	}

	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, u.SpanErrf(foSpan, "failed to read response body: %v", err)
	}

	foSpan.SetAttributes(attribute.KeyValue("fo.response", string(body)))
	foSpan.End()

	_, parseSpan := art.Diagnostic.Tracer.Start(spanCtx, "callback.get.parse")
	defer parseSpan.End()

	var res map[string]interface{}
	if err = json.Unmarshal(body, &res); err != nil {
		return nil, u.SpanErrf(parseSpan, "failed to unmarshal response body: %v", err)
	}

	tokens := &callbackTokens{}
	if v, ok := res["access_token"].(string); ok {
		tokens.AccessToken = v
	}
	if v, ok := res["refresh_token"].(string); ok {
		tokens.RefreshToken = v
	}
	if v, ok := res["csrf_token"].(string); ok {
		tokens.CsrfToken = v
	}
	if tokens.AccessToken == "" {
		return nil, u.SpanErrf(parseSpan, "response carried no access token")
	}

	return tokens, nil
}

func Callback_(c *gin.Context) {
	art := kernel.LoadConfig()
	spanCtx, span := art.Diagnostic.Tracer.Start(c.Request.Context(), "callback.handler")
	defer span.End()

	var req CallbackModel
	if err := c.ShouldBindJSON(&req); err != nil {
		u.SpanGinErrf(span, c, 400, "invalid request body")
		return
	}

	_, querySpan := art.Diagnostic.Tracer.Start(spanCtx, "callback.handler.query")
	var token models.Token
	result := art.DatabaseClient.First(&token, "state = ?", req.State)
	if err := result.Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			u.SpanGinErrf(querySpan, c, 404, "token with state '%s' not found", req.State)
			return
		}

		u.SpanGinErrf(querySpan, c, 500, "failed to query token: %v", err)
		return
	}
	querySpan.End()

	tokens, err := getAccessToken(art, spanCtx, req.Code)
	if err != nil {
		u.SpanGinErrf(span, c, 500, "failed to get access token: %v", err)
		return
	}

	_, saveSpan := art.Diagnostic.Tracer.Start(spanCtx, "callback.handler.save")
	defer saveSpan.End()

	token.AccessToken = tokens.AccessToken
	token.RefreshToken = tokens.RefreshToken
	token.CsrfToken = tokens.CsrfToken
	token.ExpiresAt = time.Now().Add(time.Hour * 24 * 180)

	if err := art.DatabaseClient.Save(&token).Error; err != nil {
		u.SpanGinErrf(saveSpan, c, 500, "failed to save token: %v", err)
		return
	}

	c.JSON(200, &gin.H{
		"status": "authorized",
	})
}
