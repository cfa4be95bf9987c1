package importer

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadExcludeFile reads a PMID exclusion list: one PMID per line, with
// everything after a # treated as a comment. A missing file means no
// exclusions.
func LoadExcludeFile(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("reading exclusion list: %w", err)
	}
	defer f.Close()

	excluded := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		pmid := strings.TrimSpace(line)
		if pmid != "" {
			excluded[pmid] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading exclusion list: %w", err)
	}
	return excluded, nil
}

// AppendExclude adds a PMID to the exclusion list, with an optional
// comment explaining why.
func AppendExclude(path, pmid, note string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("opening exclusion list: %w", err)
	}
	defer f.Close()

	line := pmid
	if note != "" {
		line = fmt.Sprintf("%s  # %s", pmid, note)
	}
	if _, err := fmt.Fprintln(f, line); err != nil {
		return fmt.Errorf("writing exclusion list: %w", err)
	}
	return nil
}
