package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siyuan-infoblox/pypolicy/pkg/errors"
)

func dialsRules() Config {
	return Config{
		Select:    []string{"E401", "E711", "E712", "E713", "E714", "E721", "E722", "E9", "F", "I", "W1", "UP"},
		Ignore:    []string{"E402", "E741", "F403", "F405"},
		Unfixable: []string{"F841"},
		PerFileIgnores: map[string][]string{
			"__init__.py":       {"F401"},
			"tests/**/*.py":     {"F811"},
			"src/dials/nexus/*": {"F401", "E722"},
		},
	}
}

func TestRuleSet_Selected(t *testing.T) {
	req := require.New(t)
	r, err := New(dialsRules(), zap.NewNop())
	req.NoError(err)

	tests := []struct {
		code string
		want bool
	}{
		{"F401", true},
		{"F841", true},
		{"E999", true},
		{"E722", true},
		{"I001", true},
		{"W191", true},
		{"E501", false},
		{"E402", false},
		{"F403", false},
		{"W605", false},
		{"B006", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			req.Equal(tt.want, r.Selected(tt.code), "Selected(%q)", tt.code)
		})
	}
}

func TestRuleSet_Enabled(t *testing.T) {
	req := require.New(t)
	r, err := New(dialsRules(), zap.NewNop())
	req.NoError(err)

	tests := []struct {
		name string
		code string
		path string
		want bool
	}{
		{"unused import in module", "F401", "src/dials/util/options.py", true},
		{"unused import in package init", "F401", "src/dials/__init__.py", false},
		{"unused import in root init", "F401", "__init__.py", false},
		{"redefinition in tests", "F811", "tests/algorithms/test_refine.py", false},
		{"redefinition in source", "F811", "src/dials/algorithms/refine.py", true},
		{"nexus override", "E722", "src/dials/nexus/nxmx.py", false},
		{"nexus override does not recurse", "E722", "src/dials/nexus/sub/nxmx.py", true},
		{"dot slash path", "F401", "./src/dials/__init__.py", false},
		{"override never re-enables", "E402", "src/dials/__init__.py", false},
		{"unselected stays off", "E501", "tests/test_x.py", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.want, r.Enabled(tt.code, tt.path), "Enabled(%q, %q)", tt.code, tt.path)
		})
	}
}

func TestRuleSet_Fixable(t *testing.T) {
	req := require.New(t)
	r, err := New(dialsRules(), nil)
	req.NoError(err)

	req.False(r.Fixable("F841"))
	req.True(r.Fixable("F401"))
	req.True(r.Fixable("I001"))
}

func TestRuleSet_AllSelector(t *testing.T) {
	req := require.New(t)
	r, err := New(Config{Select: []string{All}, Ignore: []string{"D"}}, nil)
	req.NoError(err)

	req.True(r.Selected("PLR0913"))
	req.False(r.Selected("D100"))
}

func TestRuleSet_SelectedPrefersSpecificEntry(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		code string
		want bool
	}{
		{"select narrower than ignore", Config{Select: []string{"E501"}, Ignore: []string{"E"}}, "E501", true},
		{"other codes stay ignored", Config{Select: []string{"E501"}, Ignore: []string{"E"}}, "E502", false},
		{"ignore narrower than select", Config{Select: []string{"E"}, Ignore: []string{"E501"}}, "E501", false},
		{"ignore wins a tie", Config{Select: []string{"E5"}, Ignore: []string{"E5"}}, "E501", false},
		{"all against a prefix", Config{Select: []string{"F401"}, Ignore: []string{All}}, "F401", true},
		{"ignore all", Config{Select: []string{All}, Ignore: []string{All}}, "F401", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			r, err := New(tt.cfg, nil)
			req.NoError(err)
			req.Equal(tt.want, r.Selected(tt.code))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
		msg     string
	}{
		{
			name: "valid",
			cfg:  dialsRules(),
		},
		{
			name:    "lowercase code",
			cfg:     Config{Select: []string{"f"}},
			wantErr: errors.ErrInvalidConfig,
			msg:     `invalid rule code "f" in select`,
		},
		{
			name:    "code with punctuation",
			cfg:     Config{Ignore: []string{"E-501"}},
			wantErr: errors.ErrInvalidConfig,
			msg:     `invalid rule code "E-501" in ignore`,
		},
		{
			name:    "bad per-file code",
			cfg:     Config{PerFileIgnores: map[string][]string{"*.py": {"401"}}},
			wantErr: errors.ErrInvalidConfig,
			msg:     `invalid rule code "401"`,
		},
		{
			name:    "unclosed range glob",
			cfg:     Config{PerFileIgnores: map[string][]string{"src/[abc.py": {"F401"}}},
			wantErr: errors.ErrInvalidGlob,
			msg:     `invalid per-file-ignores pattern "src/[abc.py"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := Validate(tt.cfg)
			if tt.wantErr == nil {
				req.NoError(err)
				return
			}
			req.ErrorIs(err, tt.wantErr)
			req.Contains(err.Error(), tt.msg)
		})
	}
}

func TestRuleSet_StaleOverrides(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()

	for _, f := range []string{"src/dials/__init__.py", "src/dials/util/options.py", "tests/util/test_options.py"} {
		full := filepath.Join(root, f)
		req.NoError(os.MkdirAll(filepath.Dir(full), 0755))
		req.NoError(os.WriteFile(full, []byte(""), 0644))
	}

	r, err := New(dialsRules(), zap.NewNop())
	req.NoError(err)

	stale, err := r.StaleOverrides(root)
	req.NoError(err)
	req.Equal([]string{"src/dials/nexus/*"}, stale)

	_, err = r.StaleOverrides(filepath.Join(root, "missing"))
	req.Error(err)
}

func TestRuleSet_Patterns(t *testing.T) {
	req := require.New(t)
	r, err := New(dialsRules(), nil)
	req.NoError(err)
	req.Equal([]string{"__init__.py", "src/dials/nexus/*", "tests/**/*.py"}, r.Patterns())
}
