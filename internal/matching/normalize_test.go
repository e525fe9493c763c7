package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Tomàquet", "Tomaquet"},
		{"Plàtan", "Platan"},
		{"Xoriço", "Xorico"},
		{"Ñoquis", "Noquis"},
		{"Cafè Mòlt", "Cafe Molt"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := RemoveDiacritics(tt.input)
			if result != tt.expected {
				t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lower and trim", "  Llet Sencera  ", "llet sencera"},
		{"accents", "Formatge Ratllat Tendre Tomàquet", "formatge ratllat tendre tomaquet"},
		{"punctuation dropped", "Macarrons, llacets i espirals", "macarrons llacets i espirals"},
		{"middle dot", "Col·liflor", "colliflor"},
		{"apostrophe", "Oli d'Oliva", "oli doliva"},
		{"collapse spaces", "Pa   de\tPagès", "pa de pages"},
		{"only punctuation", "!!! ...", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"drops short connectors", "macarrons llacets i espirals", []string{"macarrons", "llacets", "espirals"}},
		{"keeps allowed staples", "pa de motlle", []string{"pa", "motlle"}},
		{"keeps tea", "te verd", []string{"te", "verd"}},
		{"keeps grape", "uv negra", []string{"uv", "negra"}},
		{"all short", "a i de", []string{}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Keywords(tt.input))
		})
	}
}

func TestPrimaryKeyword(t *testing.T) {
	kw, ok := PrimaryKeyword("macarrons llacets i espirals")
	assert.True(t, ok)
	assert.Equal(t, "macarrons", kw)

	kw, ok = PrimaryKeyword("de la")
	assert.False(t, ok)
	assert.Empty(t, kw)
}

func TestSearchText(t *testing.T) {
	assert.Equal(t, "llet sencera hacendado lactis", SearchText("Llet Sencera", "HACENDADO", "Lactis"))
	assert.Equal(t, "poma fruita i verdura", SearchText("Poma", "GENÈRIC", "Fruita i Verdura"))
	assert.Equal(t, "poma", SearchText("Poma", "", ""))
}

func TestNormalizeUnit(t *testing.T) {
	tests := []struct {
		unit     string
		expected string
	}{
		{"l", "L"},
		{"Litres", "L"},
		{"ml", "mL"},
		{"cl", "cL"},
		{"KG", "kg"},
		{"unitat", "ud"},
		{"u", "ud"},
		{"pack", "pack"},
		{"dotzena", "dotzena"},
	}

	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeUnit(tt.unit))
		})
	}
}

func TestExtractSize(t *testing.T) {
	size, unit, ok := ExtractSize("Llet Hacendado Sencera 1L")
	assert.True(t, ok)
	assert.Equal(t, 1.0, size)
	assert.Equal(t, "L", unit)

	size, unit, ok = ExtractSize("Aigua Mineral 1,5 litres")
	assert.True(t, ok)
	assert.Equal(t, 1.5, size)
	assert.Equal(t, "L", unit)

	size, unit, ok = ExtractSize("Formatge ratllat 200g")
	assert.True(t, ok)
	assert.Equal(t, 200.0, size)
	assert.Equal(t, "g", unit)

	_, _, ok = ExtractSize("Pa de pagès")
	assert.False(t, ok)
}

func TestIsGenericBrand(t *testing.T) {
	tests := []struct {
		brand    string
		expected bool
	}{
		{"n/a", true},
		{"GENÈRIC", true},
		{"-", true},
		{"HACENDADO", false},
		{"Danone", false},
	}

	for _, tt := range tests {
		t.Run(tt.brand, func(t *testing.T) {
			result := isGenericBrand(tt.brand)
			if result != tt.expected {
				t.Errorf("isGenericBrand(%q) = %v, want %v", tt.brand, result, tt.expected)
			}
		})
	}
}
