package permissions

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Definition describes one permission-gated module.
type Definition struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Module name constants for permission checks.
const (
	ModuleDashboard = "dashboard"
	ModuleClients   = "clients"
	ModulePayments  = "payments"
	ModuleCalendar  = "calendar"
	ModuleProducts  = "products"
	ModuleQuotes    = "quotes"
	ModuleProfiles  = "profiles"
)

// definitions is the ordered list of module definitions.
var definitions = []Definition{
	{Name: ModuleDashboard, Label: "Dashboard"},
	{Name: ModuleClients, Label: "Clients"},
	{Name: ModulePayments, Label: "Payments & Invoices"},
	{Name: ModuleCalendar, Label: "Calendar"},
	{Name: ModuleProducts, Label: "Products"},
	{Name: ModuleQuotes, Label: "Quotes"},
	{Name: ModuleProfiles, Label: "Profiles"},
}

// aliases maps historical module names onto canonical ones.
var aliases = map[string]string{
	"products_list": ModuleProducts,
	"invoice":       ModulePayments,
}

// legacyProductTags are per-product capability tags that older permission
// sets used instead of the products module name. Any of them satisfies a
// products check.
var legacyProductTags = []string{
	"turf_products",
	"artificial_hedges",
	"fountains",
	"bamboo_products",
	"pebbles",
	"pegs",
	"adhesive_tape",
}

// definitionMap provides fast lookup for module definitions.
var definitionMap = func() map[string]Definition {
	out := make(map[string]Definition, len(definitions))
	for _, def := range definitions {
		out[def.Name] = def
	}
	return out
}()

// legacyProductTagSet provides fast lookup for legacy product tags.
var legacyProductTagSet = func() map[string]struct{} {
	out := make(map[string]struct{}, len(legacyProductTags))
	for _, tag := range legacyProductTags {
		out[tag] = struct{}{}
	}
	return out
}()

// Definitions returns a copy of all module definitions.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// AllModules returns the full permission set: every canonical module name.
func AllModules() []string {
	out := make([]string, 0, len(definitions))
	for _, def := range definitions {
		out = append(out, def.Name)
	}
	return out
}

// Canonical resolves aliases and returns the canonical module name.
func Canonical(name string) string {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[trimmed]; ok {
		return canonical
	}
	return trimmed
}

// Normalize trims, canonicalizes, de-duplicates, and sorts a permission set.
// Legacy product tags are preserved as stored.
func Normalize(perms []string) []string {
	if len(perms) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, perm := range perms {
		name := Canonical(perm)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		normalized = append(normalized, name)
	}
	sort.Strings(normalized)
	return normalized
}

// Validate checks that every permission is a known module or legacy tag.
func Validate(perms []string) error {
	for _, perm := range perms {
		name := Canonical(perm)
		if name == "" {
			continue
		}
		if _, ok := definitionMap[name]; ok {
			continue
		}
		if _, ok := legacyProductTagSet[name]; ok {
			continue
		}
		return fmt.Errorf("invalid permission: %s", strings.TrimSpace(perm))
	}
	return nil
}

// Parse parses and normalizes a permission set from JSON.
func Parse(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var perms []string
	if err := json.Unmarshal(raw, &perms); err != nil {
		return []string{}
	}
	return Normalize(perms)
}

// Marshal serializes a normalized permission set to JSON.
func Marshal(perms []string) ([]byte, error) {
	return json.Marshal(Normalize(perms))
}

// Contains reports whether the permission set grants the module. A products
// check is also satisfied by any legacy product tag in the set. Unknown
// module names are never granted.
func Contains(perms []string, module string) bool {
	name := Canonical(module)
	if name == "" {
		return false
	}
	for _, perm := range perms {
		granted := Canonical(perm)
		if granted == name {
			return true
		}
		if name == ModuleProducts {
			if _, ok := legacyProductTagSet[granted]; ok {
				return true
			}
		}
	}
	return false
}
