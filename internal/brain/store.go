package brain

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/blacksmith-cli/blacksmith/pkg/models"
)

// NotebookRef is one entry in the notebook registry file.
type NotebookRef struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	File        string `yaml:"file"`
	Description string `yaml:"description"`
}

// registryFile is the parsed brain.yaml.
type registryFile struct {
	Notebooks []NotebookRef `yaml:"notebooks"`
}

// Store is the file-backed notebook implementation of Querier.
type Store struct {
	registryPath string
	resolvePath  func(string) string

	mu sync.Mutex // serializes appends; reads are lock-free
}

// NewStore creates a Store reading the notebook registry at registryPath.
// resolvePath maps portable paths in the registry to absolute ones; pass nil
// to use paths as-is.
func NewStore(registryPath string, resolvePath func(string) string) *Store {
	if resolvePath == nil {
		resolvePath = func(s string) string { return s }
	}
	return &Store{registryPath: registryPath, resolvePath: resolvePath}
}

// Notebooks returns the registered notebooks.
func (s *Store) Notebooks() ([]NotebookRef, error) {
	raw, err := os.ReadFile(s.registryPath)
	if err != nil {
		return nil, fmt.Errorf("read notebook registry: %w", err)
	}

	reg := registryFile{}
	if err := yaml.Unmarshal(raw, &reg); err != nil {
		return nil, fmt.Errorf("parse notebook registry: %w", err)
	}

	for i := range reg.Notebooks {
		reg.Notebooks[i].File = s.resolvePath(reg.Notebooks[i].File)
	}
	return reg.Notebooks, nil
}

func (s *Store) notebook(name string) (*NotebookRef, error) {
	notebooks, err := s.Notebooks()
	if err != nil {
		return nil, err
	}
	for _, nb := range notebooks {
		if nb.Name == name {
			return &nb, nil
		}
	}
	return nil, fmt.Errorf("notebook %q not found", name)
}

// Query routes the text to relevant notebooks and gathers ranked excerpts.
// Notebook reads are independent, so they fan out concurrently and are
// re-assembled in routing order.
func (s *Store) Query(ctx context.Context, text string) (*QueryResult, error) {
	names := RouteQuery(text)
	excerpts := make([]Excerpt, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			nb, err := s.notebook(name)
			if err != nil {
				// A missing notebook degrades the query, it does not
				// fail the task.
				excerpts[i] = Excerpt{Notebook: name}
				return nil
			}
			content, err := os.ReadFile(nb.File)
			if err != nil {
				excerpts[i] = Excerpt{Notebook: name}
				return nil
			}
			excerpts[i] = Excerpt{Notebook: name, Text: excerptContent(text, string(content))}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := excerpts[:0]
	for _, e := range excerpts {
		if e.Text != "" {
			results = append(results, e)
		}
	}

	return &QueryResult{Query: text, Notebooks: names, Results: results}, nil
}

// QueryPrerequisites scans the department-history and project notebooks for
// "Prerequisites" bullet lines relevant to the task. At most 8 lines are
// returned; missing notebooks contribute nothing.
func (s *Store) QueryPrerequisites(ctx context.Context, task string, classification models.Classification) ([]string, error) {
	names := RouteTeardown(TaskSummary{Department: classification.Department})

	var mu sync.Mutex
	var lines []string

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			nb, err := s.notebook(name)
			if err != nil {
				return nil
			}
			content, err := os.ReadFile(nb.File)
			if err != nil {
				return nil
			}
			hits := extractSectionBullets("prerequisite", string(content))
			hits = filterRelevant(hits, task)
			mu.Lock()
			lines = append(lines, hits...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(lines)
	if len(lines) > 8 {
		lines = lines[:8]
	}
	return lines, nil
}

// AppendSummary appends a markdown block to the named notebook.
func (s *Store) AppendSummary(ctx context.Context, notebook, markdown string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	nb, err := s.notebook(notebook)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := os.ReadFile(nb.File)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read notebook %q: %w", notebook, err)
	}

	body := strings.TrimRight(string(existing), "\n") + "\n\n" + strings.TrimSpace(markdown) + "\n"
	if err := os.WriteFile(nb.File, []byte(body), 0644); err != nil {
		return fmt.Errorf("append to notebook %q: %w", notebook, err)
	}
	return nil
}

// scoreMatches counts how many query terms occur in the content.
func scoreMatches(query, content string) int {
	lower := strings.ToLower(content)
	total := 0
	for _, term := range splitTerms(query) {
		total += strings.Count(lower, term)
	}
	return total
}

func splitTerms(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
}

// excerptContent ranks notebook lines by term overlap and returns the top
// six. When nothing matches, the notebook's first lines stand in so a query
// never comes back empty-handed from a routed notebook.
func excerptContent(query, content string) string {
	lines := strings.Split(content, "\n")

	type scored struct {
		line  string
		score int
		order int
	}
	var ranked []scored
	for i, line := range lines {
		if score := scoreMatches(query, line); score > 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" {
				ranked = append(ranked, scored{trimmed, score, i})
			}
		}
	}

	if len(ranked) == 0 {
		head := lines
		if len(head) > 12 {
			head = head[:12]
		}
		return strings.Join(head, "\n")
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score > ranked[b].score
		}
		return ranked[a].order < ranked[b].order
	})
	if len(ranked) > 6 {
		ranked = ranked[:6]
	}

	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.line
	}
	return strings.Join(out, "\n")
}

// extractSectionBullets collects bullet lines under headings containing the
// given word, stopping at the next heading. At most six per section scan.
func extractSectionBullets(heading, text string) []string {
	var hits []string
	capture := false
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if strings.HasPrefix(line, "#") {
			capture = strings.Contains(lower, heading)
			continue
		}
		if !capture {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			hits = append(hits, strings.TrimSpace(trimmed[2:]))
			if len(hits) >= 6 {
				break
			}
		}
	}
	return hits
}

// filterRelevant keeps lines sharing at least one term with the task.
func filterRelevant(lines []string, task string) []string {
	terms := splitTerms(task)
	if len(terms) == 0 {
		return lines
	}

	var kept []string
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, term := range terms {
			if len(term) >= 4 && strings.Contains(lower, term) {
				kept = append(kept, line)
				break
			}
		}
	}
	return kept
}

// Verify Store implements Querier at compile time.
var _ Querier = (*Store)(nil)
