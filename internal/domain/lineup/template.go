package lineup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

// ArchetypeLabel is an abstract tactical slot within a composition template.
// It is distinct from the five positional roles.
type ArchetypeLabel string

const (
	LabelEngage  ArchetypeLabel = "ENGAGE"
	LabelPick    ArchetypeLabel = "PICK"
	LabelProtect ArchetypeLabel = "PROTECT"
	LabelSiege   ArchetypeLabel = "SIEGE"
	LabelSplit   ArchetypeLabel = "SPLIT"
	// LabelFlex has no style restriction and scores against ALL styles.
	LabelFlex ArchetypeLabel = "FLEX"
)

// MaxVariantsPerFamily bounds the number of templates a family may offer.
const MaxVariantsPerFamily = 3

// RoleArchetypeTemplate is one composition option: five labels not yet bound to roles.
type RoleArchetypeTemplate struct {
	Family  string                    `json:"family"`
	Variant int                       `json:"variant"`
	Labels  [RoleCount]ArchetypeLabel `json:"labels"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG DEFINITION
// ══════════════════════════════════════════════════════════════════════════════

// CatalogDefinition is the static configuration a Catalog is built from.
// It is the shape of the templates JSON file.
type CatalogDefinition struct {
	Families []FamilyDefinition `json:"families"`
	// Labels maps every label to the styles it scores against. An empty list
	// means the wildcard. Nil uses DefaultLabelStyles.
	Labels map[string][]string `json:"labels,omitempty"`
}

// FamilyDefinition lists the label sequences of one family.
type FamilyDefinition struct {
	Name     string     `json:"name"`
	Variants [][]string `json:"variants"`
}

// DefaultLabelStyles is the built-in label to style table.
func DefaultLabelStyles() map[string][]string {
	return map[string][]string{
		string(LabelEngage):  {string(StyleEngage)},
		string(LabelPick):    {string(StylePickup)},
		string(LabelProtect): {string(StyleProtect)},
		string(LabelSiege):   {string(StyleSiege)},
		string(LabelSplit):   {string(StyleSplitpush)},
		string(LabelFlex):    {},
	}
}

// DefaultCatalogDefinition returns the built-in families.
func DefaultCatalogDefinition() CatalogDefinition {
	return CatalogDefinition{
		Families: []FamilyDefinition{
			{Name: "ENGAGE", Variants: [][]string{
				{"ENGAGE", "ENGAGE", "ENGAGE", "PICK", "PICK"},
				{"ENGAGE", "ENGAGE", "ENGAGE", "PROTECT", "FLEX"},
			}},
			{Name: "PICK", Variants: [][]string{
				{"PICK", "PICK", "PICK", "ENGAGE", "FLEX"},
				{"PICK", "PICK", "SIEGE", "SIEGE", "FLEX"},
			}},
			{Name: "PROTECT", Variants: [][]string{
				{"PROTECT", "PROTECT", "PROTECT", "ENGAGE", "FLEX"},
				{"PROTECT", "PROTECT", "SIEGE", "SIEGE", "ENGAGE"},
			}},
			{Name: "SIEGE", Variants: [][]string{
				{"SIEGE", "SIEGE", "SIEGE", "PROTECT", "PROTECT"},
				{"SIEGE", "SIEGE", "PICK", "PICK", "FLEX"},
			}},
			{Name: "SPLIT", Variants: [][]string{
				{"SPLIT", "SPLIT", "PICK", "PICK", "FLEX"},
				{"SPLIT", "SIEGE", "SIEGE", "PROTECT", "FLEX"},
				{"SPLIT", "PICK", "PICK", "PICK", "ENGAGE"},
			}},
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// Catalog is a validated, read-only set of template families. Safe for concurrent use.
type Catalog struct {
	order       []string
	families    map[string][]RoleArchetypeTemplate
	labelStyles map[ArchetypeLabel][]CompositionStyle
}

// NewCatalog validates def. Any problem is reported as ErrInvalidTemplate.
func NewCatalog(def CatalogDefinition) (*Catalog, error) {
	labels := def.Labels
	if labels == nil {
		labels = DefaultLabelStyles()
	}

	c := &Catalog{
		families:    make(map[string][]RoleArchetypeTemplate, len(def.Families)),
		labelStyles: make(map[ArchetypeLabel][]CompositionStyle, len(labels)),
	}

	for rawLabel, rawStyles := range labels {
		label := normalizeLabel(rawLabel)
		if label == "" {
			return nil, invalidTemplate("empty label in label table")
		}
		styles := make([]CompositionStyle, 0, len(rawStyles))
		for _, rs := range rawStyles {
			st, err := ParseCompositionStyle(rs)
			if err != nil || st == StyleUnknown || st == StyleAll {
				return nil, invalidTemplate(fmt.Sprintf("label %s maps to invalid style %q", label, rs))
			}
			styles = append(styles, st)
		}
		c.labelStyles[label] = styles
	}

	if len(def.Families) == 0 {
		return nil, invalidTemplate("catalog has no families")
	}
	for _, fam := range def.Families {
		name := normalizeFamily(fam.Name)
		if name == "" {
			return nil, invalidTemplate("family name is required")
		}
		if _, dup := c.families[name]; dup {
			return nil, invalidTemplate(fmt.Sprintf("family %s defined twice", name))
		}
		if len(fam.Variants) == 0 || len(fam.Variants) > MaxVariantsPerFamily {
			return nil, invalidTemplate(fmt.Sprintf("family %s must have 1..%d variants, got %d", name, MaxVariantsPerFamily, len(fam.Variants)))
		}
		templates := make([]RoleArchetypeTemplate, 0, len(fam.Variants))
		for i, variant := range fam.Variants {
			if len(variant) != RoleCount {
				return nil, invalidTemplate(fmt.Sprintf("family %s variant %d has %d labels, want %d", name, i+1, len(variant), RoleCount))
			}
			t := RoleArchetypeTemplate{Family: name, Variant: i + 1}
			for j, raw := range variant {
				label := normalizeLabel(raw)
				if _, ok := c.labelStyles[label]; !ok {
					return nil, invalidTemplate(fmt.Sprintf("family %s variant %d uses unknown label %q", name, i+1, raw))
				}
				t.Labels[j] = label
			}
			templates = append(templates, t)
		}
		c.families[name] = templates
		c.order = append(c.order, name)
	}

	return c, nil
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultCatalogDefinition())
	if err != nil {
		panic(err)
	}
	return c
}

// Families returns family names in definition order.
func (c *Catalog) Families() []string {
	return append([]string(nil), c.order...)
}

// Templates returns the variants of family, or ErrUnknownFamily.
func (c *Catalog) Templates(family string) ([]RoleArchetypeTemplate, error) {
	templates, ok := c.families[normalizeFamily(family)]
	if !ok {
		return nil, invalidValue("Templates", ErrUnknownFamily, family)
	}
	return append([]RoleArchetypeTemplate(nil), templates...), nil
}

// StylesFor maps a label to the styles it is scored against. An empty result
// means the wildcard.
func (c *Catalog) StylesFor(label ArchetypeLabel) ([]CompositionStyle, error) {
	styles, ok := c.labelStyles[label]
	if !ok {
		return nil, invalidValue("StylesFor", ErrUnknownLabel, label)
	}
	return append([]CompositionStyle(nil), styles...), nil
}

// Labels returns the known labels sorted by name.
func (c *Catalog) Labels() []ArchetypeLabel {
	out := make([]ArchetypeLabel, 0, len(c.labelStyles))
	for l := range c.labelStyles {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func normalizeFamily(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normalizeLabel(s string) ArchetypeLabel {
	return ArchetypeLabel(strings.ToUpper(strings.TrimSpace(s)))
}

func invalidTemplate(msg string) error {
	return shared.NewDomainError("lineup", "NewCatalog", ErrInvalidTemplate, msg)
}
