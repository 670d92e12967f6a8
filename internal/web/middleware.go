package web

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"sellerdesk/internal/config"
	"sellerdesk/internal/infrastructure/logger"

	"golang.org/x/time/rate"
)

var (
	limitersMu sync.Mutex
	limiters   = make(map[string]*rate.Limiter)
)

func limiterForIP(ip string) *rate.Limiter {
	limitersMu.Lock()
	defer limitersMu.Unlock()

	if l, ok := limiters[ip]; ok {
		return l
	}

	conf := config.File.WebConfig
	l := rate.NewLimiter(rate.Limit(conf.RateLimit), conf.RateBurst)
	limiters[ip] = l
	return l
}

// LimitMiddleware ограничивает количество запросов от одного IP
func LimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !limiterForIP(ip).Allow() {
			logger.Warn("Превышен лимит запросов с IP ", ip)
			writeError(w, http.StatusTooManyRequests, "превышен лимит запросов", "")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware проверяет bearer-ключ защищенных эндпоинтов
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")

		if header == "" || token == header || token != config.File.WebConfig.APIKey {
			writeError(w, http.StatusUnauthorized, "неверный ключ авторизации", "")
			return
		}

		next.ServeHTTP(w, r)
	})
}
