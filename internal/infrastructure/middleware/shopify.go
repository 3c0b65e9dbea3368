package middleware

import (
	"fmt"
	"net/http"
	"regexp"

	"shopify-variant-cleanup/internal/domain"

	"github.com/rs/zerolog"
)

var shopDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.-]*$`)

// ShopChecker reports whether a shop has the app installed
type ShopChecker interface {
	Has(shop string) bool
}

// FrameAncestorsMiddleware restricts who may embed the response.
// With a shop query parameter the shop admin and admin.shopify.com may frame it; without one nobody may.
func FrameAncestorsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shop := r.URL.Query().Get("shop")
			if shop != "" && shopDomainPattern.MatchString(shop) {
				w.Header().Set("Content-Security-Policy",
					fmt.Sprintf("frame-ancestors https://%s https://admin.shopify.com;", shop))
			} else {
				w.Header().Set("Content-Security-Policy", "frame-ancestors 'none';")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActiveShopMiddleware sends a shop that is not installed to /auth with the original query.
// Requests without a shop parameter pass through.
func ActiveShopMiddleware(shops ShopChecker, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shop := domain.NormalizeShopDomain(r.URL.Query().Get("shop"))
			if shop != "" && !shops.Has(shop) {
				logger.Info().Str("shop", shop).Msg("Shop not installed, redirecting to auth")
				http.Redirect(w, r, "/auth?"+r.URL.Query().Encode(), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
