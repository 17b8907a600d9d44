package matrix

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"condorledger/internal/domain"
)

//go:embed defaults.yaml
var defaultTablesYAML []byte

// tableFile is the on-disk YAML shape
type tableFile struct {
	Tiers []struct {
		Label  string      `yaml:"label"`
		Levels map[int]int `yaml:"levels"`
	} `yaml:"tiers"`
}

// Tables holds the standard-topology reference contract counts per capital
// tier. Stacked and shifted schedules are derived from the standard counts.
type Tables struct {
	tiers map[string]map[int]int // tier label -> level -> base contracts
	order []string               // tier labels sorted by capital amount
}

// LoadTables reads reference tables from the given YAML file, falling back to
// the embedded defaults when path is empty.
func LoadTables(path string) (*Tables, error) {
	data := defaultTablesYAML
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read matrix tables %s: %w", path, err)
		}
		data = fileData
	}

	var parsed tableFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse matrix tables: %w", err)
	}
	if len(parsed.Tiers) == 0 {
		return nil, fmt.Errorf("matrix tables define no tiers")
	}

	t := &Tables{tiers: make(map[string]map[int]int, len(parsed.Tiers))}
	for _, tier := range parsed.Tiers {
		if tier.Label == "" || len(tier.Levels) == 0 {
			return nil, fmt.Errorf("matrix tier %q is incomplete", tier.Label)
		}
		if _, err := domain.ParseMoney(tier.Label); err != nil {
			return nil, fmt.Errorf("matrix tier label must be a capital amount: %w", err)
		}
		for level, count := range tier.Levels {
			if level < 1 || count < 0 {
				return nil, fmt.Errorf("matrix tier %q has invalid level %d: %d contracts", tier.Label, level, count)
			}
		}
		t.tiers[tier.Label] = tier.Levels
		t.order = append(t.order, tier.Label)
	}

	sort.Slice(t.order, func(i, j int) bool {
		a, _ := domain.ParseMoney(t.order[i])
		b, _ := domain.ParseMoney(t.order[j])
		return a < b
	})

	return t, nil
}

// TierLabels returns the configured capital tiers, smallest first
func (t *Tables) TierLabels() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// HasTier reports whether a tier label is configured
func (t *Tables) HasTier(label string) bool {
	_, ok := t.tiers[label]
	return ok
}

// Schedule returns the level -> base contract counts for a tier under the
// given topology, in a fresh map.
//
// standard: counts as configured.
// stacked:  level 2's count is merged into level 3; level 2 itself always
//           trades zero but still participates in the pass.
// shifted:  the schedule is renumbered down one level, so level N uses the
//           standard count of level N+1 (zero past the end of the table).
func (t *Tables) Schedule(label string, topology domain.MatrixName) (map[int]int, error) {
	standard, ok := t.tiers[label]
	if !ok {
		return nil, fmt.Errorf("unknown capital tier: %q", label)
	}

	schedule := make(map[int]int, len(standard))
	switch topology {
	case domain.MatrixStandard, "":
		for level, count := range standard {
			schedule[level] = count
		}

	case domain.MatrixStacked:
		for level, count := range standard {
			schedule[level] = count
		}
		if two, ok := schedule[2]; ok {
			schedule[3] += two
			schedule[2] = 0
		}

	case domain.MatrixShifted:
		for level := range standard {
			schedule[level] = standard[level+1]
		}

	default:
		return nil, fmt.Errorf("unknown matrix topology: %q", topology)
	}

	return schedule, nil
}

// Levels returns the levels of a tier's schedule in ascending order
func Levels(schedule map[int]int) []int {
	levels := make([]int, 0, len(schedule))
	for level := range schedule {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}
