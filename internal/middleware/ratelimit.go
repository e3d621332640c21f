package middleware

import (
	"net/http"
	"time"

	"github.com/tillerstead/admin/internal/apperr"
)

// Limiter is a per-key request budget
type Limiter interface {
	Allow(key string) (bool, time.Duration)
	Refund(key string)
	Message() string
}

// RateLimit limits every request by client IP
func RateLimit(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !admit(w, r, l) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthRateLimit limits login attempts. Successful attempts are refunded so
// only failures count against the budget.
func AuthRateLimit(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !admit(w, r, l) {
				return
			}
			rec := record(w)
			next.ServeHTTP(rec, r)
			if rec.code() < http.StatusBadRequest {
				l.Refund(ClientIP(r))
			}
		})
	}
}

// ModifyRateLimit limits state-changing requests only
func ModifyRateLimit(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isMutating(r.Method) && !admit(w, r, l) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func admit(w http.ResponseWriter, r *http.Request, l Limiter) bool {
	ok, retry := l.Allow(ClientIP(r))
	if !ok {
		apperr.Write(w, apperr.RateLimited(l.Message(), retry), false)
	}
	return ok
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
