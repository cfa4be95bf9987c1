package member

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadError records a member file that could not be used.
type LoadError struct {
	Path string
	Err  error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// frontMatter mirrors the metadata header of a member page. Fields are
// kept as strings because the upstream pages mix YAML types freely
// ("active: yes", unquoted ORCIDs, etc.).
type frontMatter struct {
	Name    string `yaml:"name"`
	ORCID   string `yaml:"orcid"`
	PubName string `yaml:"pub_name"`
	Active  string `yaml:"active"`
}

// LoadDir parses every .md file in dir into a Member. Files without a
// name field are reported in the returned errors and skipped; a bad file
// never fails the whole load. Members are returned sorted by name so
// processing order is stable run to run.
func LoadDir(dir string) ([]Member, []LoadError, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading members directory: %w", err)
	}

	var members []Member
	var loadErrs []LoadError

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		m, err := LoadFile(path)
		if err != nil {
			loadErrs = append(loadErrs, LoadError{Path: path, Err: err})
			continue
		}
		members = append(members, m)
	}

	sort.Slice(members, func(i, j int) bool {
		return members[i].Name < members[j].Name
	})

	return members, loadErrs, nil
}

// LoadFile parses a single member page.
func LoadFile(path string) (Member, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Member{}, err
	}

	fm, err := parseMetadata(string(data))
	if err != nil {
		return Member{}, err
	}
	if strings.TrimSpace(fm.Name) == "" {
		return Member{}, fmt.Errorf("missing name field")
	}

	return Member{
		Name:    strings.TrimSpace(fm.Name),
		ORCID:   strings.TrimSpace(fm.ORCID),
		PubName: strings.TrimSpace(fm.PubName),
		Active:  isTrue(fm.Active),
		Path:    path,
	}, nil
}

// parseMetadata handles both delimited YAML front matter (--- ... ---)
// and the bare leading key:value block used by older member pages.
func parseMetadata(content string) (frontMatter, error) {
	var fm frontMatter

	if strings.HasPrefix(content, "---") {
		rest := content[3:]
		end := strings.Index(rest, "\n---")
		if end < 0 {
			return fm, fmt.Errorf("unterminated front matter")
		}
		if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
			return fm, fmt.Errorf("parsing front matter: %w", err)
		}
		return fm, nil
	}

	// Bare metadata block: key: value lines up to the first blank line.
	var block strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		key, _, found := strings.Cut(line, ":")
		if !found || strings.ContainsAny(key, " \t") {
			// Not a metadata line; the header is over.
			break
		}
		block.WriteString(line)
		block.WriteString("\n")
	}
	if err := yaml.Unmarshal([]byte(block.String()), &fm); err != nil {
		return fm, fmt.Errorf("parsing metadata block: %w", err)
	}
	return fm, nil
}

// isTrue interprets the active flag values found in member pages.
func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true
	}
	return false
}

// FilterActive returns only active members.
func FilterActive(members []Member) []Member {
	var out []Member
	for _, m := range members {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

// FilterByName returns members matching the name filter.
func FilterByName(members []Member, name string) []Member {
	var out []Member
	for _, m := range members {
		if m.MatchesName(name) {
			out = append(out, m)
		}
	}
	return out
}
