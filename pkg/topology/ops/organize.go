package ops

import (
	"fmt"
	"strings"

	"github.com/cognicore/topology/internal/metrics"
	"github.com/cognicore/topology/pkg/topology/internalerr"
	"github.com/cognicore/topology/pkg/topology/taxonomy"
	"github.com/cognicore/topology/pkg/topology/urlnorm"
)

// Layout of Organize output paths.
type Layout string

const (
	// Folders is <dir>/<category>/<name>.
	Folders Layout = "folders"
	// Flat is <dir>/<category>--<name>.
	Flat Layout = "flat"
	// Nested is <dir>/<hierarchy segments...>/<name>, from _hierarchy when
	// present.
	Nested Layout = "nested"
)

// ParseLayout maps a name to a Layout; "" selects Folders.
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(strings.ToLower(s)); l {
	case "":
		return Folders, nil
	case Folders, Flat, Nested:
		return l, nil
	}
	return "", fmt.Errorf("%w: unknown organize format %q (want folders, flat or nested)", internalerr.ErrInvalidInput, s)
}

// OrganizeOptions configures Organize.
type OrganizeOptions struct {
	Layout        Layout
	OutputDir     string
	CategoryField string
	NameField     string
}

// Organize assigns every record an _output_path built from slugs of its
// category and name. A missing category reads as Uncategorized and a
// missing name as "unknown".
func (e *Engine) Organize(rows []Record, opts OrganizeOptions) ([]Record, error) {
	defer metrics.Stage("organize")()

	layout, err := ParseLayout(string(opts.Layout))
	if err != nil {
		return nil, err
	}

	out := cloneRows(rows)
	for _, r := range out {
		category := GetText(r, opts.CategoryField)
		if category == "" {
			category = taxonomy.Uncategorized
		}
		name := GetText(r, opts.NameField)
		if name == "" {
			name = "unknown"
		}
		slugCat, slugName := urlnorm.Slugify(category), urlnorm.Slugify(name)

		var p string
		switch layout {
		case Flat:
			p = opts.OutputDir + "/" + slugCat + "--" + slugName
		case Nested:
			hierarchy := GetText(r, FieldHierarchy)
			if hierarchy == "" {
				hierarchy = category
			}
			parts := strings.Split(hierarchy, taxonomy.PathSeparator)
			for i, part := range parts {
				parts[i] = urlnorm.Slugify(part)
			}
			p = opts.OutputDir + "/" + strings.Join(parts, "/") + "/" + slugName
		default:
			p = opts.OutputDir + "/" + slugCat + "/" + slugName
		}
		r[FieldOutputPath] = p
	}
	return out, nil
}
