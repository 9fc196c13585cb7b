package geoip

import "testing"

func TestCountry_WithoutDatabase(t *testing.T) {
	for _, path := range []string{"", "/nonexistent/GeoLite2-Country.mmdb"} {
		r, err := New(path)
		if err != nil {
			t.Fatalf("New(%q): expected graceful fallback, got %v", path, err)
		}
		for _, addr := range []string{"8.8.8.8", "203.0.113.9:443", "", "not-an-ip"} {
			if got := r.Country(addr); got != "" {
				t.Errorf("Country(%q) = %q, want empty", addr, got)
			}
		}
		if err := r.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	}
}

func TestCountry_NilResolver(t *testing.T) {
	var r *Resolver
	if got := r.Country("8.8.8.8"); got != "" {
		t.Errorf("expected empty country from nil resolver, got %q", got)
	}
	if err := r.Close(); err != nil {
		t.Errorf("expected nil error closing nil resolver, got %v", err)
	}
}
