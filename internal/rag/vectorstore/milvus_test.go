package vectorstore

import "testing"

func TestCollectionName(t *testing.T) {
	cases := []struct {
		tenantID string
		want     string
	}{
		{"acme", "tenant_acme"},
		{"Acme42", "tenant_Acme42"},
		{"acme-corp", "tenant_acme_corp"},
		{"acme.corp/eu", "tenant_acme_corp_eu"},
		{"tenant_1", "tenant_tenant_1"},
	}
	for _, c := range cases {
		if got := CollectionName(c.tenantID); got != c.want {
			t.Errorf("CollectionName(%q) = %q, want %q", c.tenantID, got, c.want)
		}
	}
}

func TestCollectionNameIsolation(t *testing.T) {
	// Similar tenant ids must still map to distinct collections when they
	// differ in allowed characters.
	a := CollectionName("team1")
	b := CollectionName("team2")
	if a == b {
		t.Fatalf("distinct tenants mapped to the same collection %q", a)
	}
}
