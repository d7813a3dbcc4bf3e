package siddata

import (
	"fmt"

	"github.com/virtuos/siddata-backend/internal/types"
)

// TemplateID builds the globally unique template identifier
// "<PluginClassName>_AC_<name>". This string is the only naming contract a
// plugin author must respect to avoid collisions.
func TemplateID(className, name string) string {
	return fmt.Sprintf("%s_AC_%s", className, name)
}

// TemplateIDForOrigin suffixes the identifier with "_OG_<endpoint>" for
// templates that must be disambiguated per origin.
func TemplateIDForOrigin(className, name string, origin *types.Origin) string {
	return fmt.Sprintf("%s_OG_%s", TemplateID(className, name), origin.Endpoint)
}
