package config

// cctbxModules are the cctbx-family roots grouped into their own section
var cctbxModules = []string{
	"boost", "boost_adaptbx", "cbflib_adaptbx", "cctbx", "chiltbx", "clipper_adaptbx",
	"cma_es", "cootbx", "crys3d", "cudatbx", "dxtbx", "fable", "fast_linalg", "fftw3tbx",
	"gltbx", "gui_resources", "iota", "iotbx", "kokkostbx", "libtbx", "mmtbx", "omptbx",
	"prime", "rstbx", "scitbx", "simtbx", "smtbx", "spotfinder", "tbxx", "ucif", "wxtbx",
	"xfel",
}

// Defaults returns the DIALS development-process policy
func Defaults() File {
	return File{
		Tool: Tool{
			Towncrier: &Towncrier{
				Package:     "dials",
				PackageDir:  "src",
				Filename:    "CHANGELOG.rst",
				IssueFormat: "`#{issue} <https://github.com/dials/dials/issues/{issue}>`_",
			},
			Ruff: &Ruff{
				Lint: Lint{
					Select:    []string{"E401", "E711", "E712", "E713", "E714", "E721", "E722", "E9", "F", "W1", "I"},
					Ignore:    []string{"E741", "F403", "F405"},
					Unfixable: []string{"F841"},
					PerFileIgnores: map[string][]string{
						"__init__.py": {"F401"},
					},
					Isort: &Isort{
						SectionOrder:    []string{"future", "standard-library", "third-party", "cctbx", "first-party", "local-folder"},
						KnownFirstParty: []string{"dials"},
						RequiredImports: []string{"from __future__ import annotations"},
						Sections: map[string][]string{
							"cctbx": append([]string(nil), cctbxModules...),
						},
					},
				},
			},
			Pytest: &Pytest{
				IniOptions: IniOptions{
					Addopts:   "-rsxX",
					Testpaths: []string{"tests"},
					FilterWarnings: []string{
						"ignore:the matrix subclass is not the recommended way:PendingDeprecationWarning",
						"ignore:numpy.dtype size changed:RuntimeWarning",
						"ignore:Deprecated call to `pkg_resources.declare_namespace:DeprecationWarning",
						"ignore:`product` is deprecated as of NumPy:DeprecationWarning:h5py|numpy",
						"ignore:pkg_resources is deprecated as an API:DeprecationWarning",
					},
					JunitFamily: "legacy",
				},
			},
		},
	}
}
