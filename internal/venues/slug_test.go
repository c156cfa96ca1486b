package venues

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Château d'Augerville":    "chateau-d-augerville",
		"  Le Manoir de Kerhuel ": "le-manoir-de-kerhuel",
		"Dôme — Île-de-France":    "dome-ile-de-france",
		"Cœur de Loire":           "coeur-de-loire",
		"Domaine 1789!!":          "domaine-1789",
		"---":                     "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
