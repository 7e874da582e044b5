package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func localeProbe(t *testing.T, lookup CountryLookup, configure func(r *http.Request)) (locale, country string) {
	t.Helper()
	handler := Locale("en", lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
		country = CountryFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.10:4321"
	if configure != nil {
		configure(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return locale, country
}

func TestLocaleFromXLocaleHeader(t *testing.T) {
	locale, _ := localeProbe(t, nil, func(r *http.Request) {
		r.Header.Set("X-Locale", "id")
	})
	if locale != "id" {
		t.Fatalf("locale mismatch: got %q want %q", locale, "id")
	}
}

func TestLocaleFromAcceptLanguage(t *testing.T) {
	locale, country := localeProbe(t, nil, func(r *http.Request) {
		r.Header.Set("Accept-Language", "id-ID,id;q=0.9,en;q=0.8")
	})
	if locale != "id" {
		t.Fatalf("locale mismatch: got %q want %q", locale, "id")
	}
	if country != "ID" {
		t.Fatalf("country mismatch: got %q want %q", country, "ID")
	}
}

func TestLocaleUnsupportedLanguageFallsBack(t *testing.T) {
	locale, _ := localeProbe(t, nil, func(r *http.Request) {
		r.Header.Set("Accept-Language", "fr-FR")
	})
	if locale != "en" {
		t.Fatalf("locale mismatch: got %q want %q", locale, "en")
	}
}

func TestLocaleDefaultsWithoutSignals(t *testing.T) {
	locale, country := localeProbe(t, nil, nil)
	if locale != "en" {
		t.Fatalf("locale mismatch: got %q want %q", locale, "en")
	}
	if country != "" {
		t.Fatalf("expected no country, got %q", country)
	}
}

func TestLocaleUsesGeoIPLookup(t *testing.T) {
	lookup := func(ip string) (string, error) {
		if ip != "203.0.113.10" {
			t.Fatalf("unexpected lookup ip %q", ip)
		}
		return "id", nil
	}
	locale, country := localeProbe(t, lookup, nil)
	if country != "ID" {
		t.Fatalf("country mismatch: got %q want %q", country, "ID")
	}
	if locale != "id" {
		t.Fatalf("locale mismatch: got %q want %q", locale, "id")
	}
}

func TestLocaleCountryHeaderHint(t *testing.T) {
	_, country := localeProbe(t, nil, func(r *http.Request) {
		r.Header.Set("CF-IPCountry", "sg")
	})
	if country != "SG" {
		t.Fatalf("country mismatch: got %q want %q", country, "SG")
	}
}
