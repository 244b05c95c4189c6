package kernel

import (
	"math/rand"

	"github.com/google/uuid"
)

func (rt *RequestRuntime) BindJSON(obj any) {
	if err := rt.RequestContext.ShouldBindJSON(obj); err != nil {
		rt.S(rt.MakeErrorf("failed to bind json: %v", err))
	}
}

// Suppress function error output
func (rt *RequestRuntime) S(err error) {
	if err != nil {
	}
}

func UuidV7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func RandString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}
