package casefile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCaseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		want  int
		valid bool
	}{
		{"007_upper.stl", 7, true},
		{"3_lower.stl", 3, true},
		{"12345.STL", 12345, true},
		{"000_top.stl", 0, true},
		{"0042abc_l.stl", 42, true},
		{"upper_01.stl", 0, false},
		{"UPPER_01.stl", 0, false},
		{"_1_upper.stl", 0, false},
		{"", 0, false},
		{"99999999999999999999999_upper.stl", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCaseID(tt.name)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.Equal(t, tt.want, got.Value)
			}
		})
	}
}

func TestCaseIDString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", CaseID{}.String())
	assert.Equal(t, "7", CaseID{Value: 7, Valid: true}.String())
}

func TestDetectRole(t *testing.T) {
	t.Parallel()

	kw := DefaultKeywords()
	tests := []struct {
		name string
		want Role
	}{
		{"1_upper.stl", RoleUpper},
		{"1_UPPER.STL", RoleUpper},
		{"2_top.stl", RoleUpper},
		{"3_верх.stl", RoleUpper},
		{"3_ВЕРХ.stl", RoleUpper},
		{"4_verh.stl", RoleUpper},
		{"5_u.stl", RoleUpper},
		{"1_lower.stl", RoleLower},
		{"2_bottom.stl", RoleLower},
		{"3_низ.stl", RoleLower},
		{"4_niz.stl", RoleLower},
		{"5_l.stl", RoleLower},
		{"6_scan.stl", RoleUnknown},
		// Both sets match; upper is checked first.
		{"7_top_lower.stl", RoleUpper},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectRole(tt.name, kw))
		})
	}
}

func TestDetectRole_CaseInsensitive(t *testing.T) {
	t.Parallel()

	kw := DefaultKeywords()
	assert.Equal(t, DetectRole("upper_01.stl", kw), DetectRole("UPPER_01.stl", kw))
	assert.Equal(t, RoleUpper, DetectRole("x.stl", Keywords{Upper: []string{"X"}}))
}

func TestDetectRole_BlankKeywordsIgnored(t *testing.T) {
	t.Parallel()

	kw := Keywords{Upper: []string{"", "  "}, Lower: []string{"lower"}}
	assert.Equal(t, RoleUnknown, DetectRole("scan.stl", kw))
	assert.Equal(t, RoleLower, DetectRole("scan_lower.stl", kw))
}

func TestParse(t *testing.T) {
	t.Parallel()

	info := Parse("0012_lower.stl", DefaultKeywords())
	assert.Equal(t, Info{
		Name:   "0012_lower.stl",
		CaseID: CaseID{Value: 12, Valid: true},
		Role:   RoleLower,
	}, info)
	assert.Equal(t, "lower", info.Role.String())
	assert.Equal(t, "unknown", RoleUnknown.String())
}
