package scanner

import (
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/vsclean/internal/editor"
)

// Resolution is the outcome of one resolution pass. It is built fresh on
// every call and not modified afterwards.
type Resolution struct {
	OS         editor.OS
	Candidates []editor.Candidate // every catalog entry, in priority order
	Active     *editor.Candidate  // first candidate with any file, or nil
}

// Resolve walks the catalog for goos in priority order and probes each
// candidate's database and config files independently. It fails only for
// unsupported platforms; probe errors count as "file absent".
func (s *Scanner) Resolve(goos editor.OS, env editor.Environment) (*Resolution, error) {
	templates := editor.Catalog(goos)
	if templates == nil {
		return nil, &UnsupportedPlatformError{OS: string(goos)}
	}

	res := &Resolution{
		OS:         goos,
		Candidates: make([]editor.Candidate, 0, len(templates)),
	}

	for _, tmpl := range templates {
		c := tmpl.Expand(goos, env)
		c.DatabaseExists = s.fileExists(c.DatabasePath)
		c.ConfigExists = s.fileExists(c.ConfigPath)

		s.log.Debug().
			Str("variant", string(c.Variant)).
			Str("root", c.RootPath).
			Bool("database", c.DatabaseExists).
			Bool("config", c.ConfigExists).
			Msg("probed installation candidate")

		res.Candidates = append(res.Candidates, c)
	}

	for i := range res.Candidates {
		if res.Candidates[i].HasFiles() {
			res.Active = &res.Candidates[i]
			break
		}
	}

	if res.Active != nil {
		s.log.Info().
			Str("variant", string(res.Active.Variant)).
			Str("root", res.Active.RootPath).
			Msg("active installation")
	}

	return res, nil
}

// Resolve is a convenience wrapper using os.Stat and a disabled logger.
func Resolve(goos editor.OS, env editor.Environment) (*Resolution, error) {
	return New(zerolog.Nop()).Resolve(goos, env)
}

// fileExists follows symlinks and treats any error, including permission
// denied, as absence. Directories do not count.
func (s *Scanner) fileExists(path string) bool {
	info, err := s.stat(path)
	if err != nil {
		s.log.Trace().Err(err).Str("path", path).Msg("probe failed")
		return false
	}
	return !info.IsDir()
}

// Found returns the candidates that have at least one required file.
func (r *Resolution) Found() []editor.Candidate {
	var found []editor.Candidate
	for _, c := range r.Candidates {
		if c.HasFiles() {
			found = append(found, c)
		}
	}
	return found
}

// Find returns the candidate for variant v.
func (r *Resolution) Find(v editor.Variant) (editor.Candidate, bool) {
	for _, c := range r.Candidates {
		if c.Variant == v {
			return c, true
		}
	}
	return editor.Candidate{}, false
}
