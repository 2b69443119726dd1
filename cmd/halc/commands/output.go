package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
)

// renderResource writes resource in the configured output format.
func renderResource(out io.Writer, resource *hal.Resource) error {
	switch outputFormat(out) {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return encoder.Encode(resource)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)

		return encoder.Encode(plainValue(resource.ToMap()))
	default:
		return renderResourceTables(out, resource)
	}
}

// renderResources writes a list of resources, one table row each.
func renderResources(out io.Writer, resources []*hal.Resource) error {
	switch outputFormat(out) {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return encoder.Encode(resources)
	case constants.FormatYAML:
		items := make([]any, 0, len(resources))
		for _, resource := range resources {
			items = append(items, plainValue(resource.ToMap()))
		}

		return yaml.NewEncoder(out).Encode(items)
	default:
		return renderItemsTable(out, resources)
	}
}

func renderResourceTables(out io.Writer, resource *hal.Resource) error {
	data := resource.Data()

	if len(data) > 0 {
		table := tablewriter.NewWriter(out)
		table.Header("Field", "Value")

		for _, key := range sortedKeys(data) {
			_ = table.Append([]string{key, cellValue(data[key])})
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}

	if links := resource.Links(); len(links) > 0 {
		_, _ = io.WriteString(out, "\nLinks:\n")

		table := tablewriter.NewWriter(out)
		table.Header("Rel", "Href", "Templated")

		for _, link := range links {
			_ = table.Append([]string{strings.Join(link.Rels(), ", "), link.Href(), strconv.FormatBool(link.IsTemplated())})
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}

	caser := cases.Title(language.English)

	for _, name := range resource.EmbeddedNames() {
		embedded, _ := resource.EmbeddedResource(name)

		_, _ = fmt.Fprintf(out, "\n%s (%d):\n", caser.String(strings.ReplaceAll(name, "_", " ")), embedded.Len())

		if err := renderItemsTable(out, embedded.Items()); err != nil {
			return err
		}
	}

	return nil
}

func renderItemsTable(out io.Writer, resources []*hal.Resource) error {
	if len(resources) == 0 {
		_, _ = io.WriteString(out, "No items found\n")

		return nil
	}

	columns := map[string]any{}
	for _, resource := range resources {
		for key := range resource.Data() {
			columns[key] = nil
		}
	}

	keys := sortedKeys(columns)

	table := tablewriter.NewWriter(out)
	table.Header(toAny(keys)...)

	for _, resource := range resources {
		data := resource.Data()
		row := make([]string, 0, len(keys))

		for _, key := range keys {
			row = append(row, cellValue(data[key]))
		}

		_ = table.Append(row)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}

	return out
}

func cellValue(value any) string {
	switch v := value.(type) {
	case nil:
		return constants.NotAvailable
	case string:
		return truncate(v)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return truncate(string(encoded))
	}
}

// plainValue converts json.Number leaves to int64 or float64 so YAML renders
// them as numbers.
func plainValue(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}

		if f, err := v.Float64(); err == nil {
			return f
		}

		return v.String()
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = plainValue(item)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plainValue(item)
		}

		return out
	default:
		return value
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
