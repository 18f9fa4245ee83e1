package output

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/zfogg/chirp/cli/pkg/config"
)

// OutputFormat is the value of --output / output.format
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatText  OutputFormat = "text"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GetOutputFormat returns the configured output format, text when unset or unknown
func GetOutputFormat() OutputFormat {
	switch config.GetString("output.format") {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

func ValidateOutputFormat(format string) bool {
	return format == "json" || format == "table" || format == "text"
}

// Print writes data as indented JSON, under a title line in text mode.
// Generic objects have no table form, so table mode prints text.
func Print(title string, data interface{}) error {
	if GetOutputFormat() == FormatJSON {
		return writeJSON(color.Output, data)
	}
	if title != "" {
		fmt.Fprintf(color.Output, "%s:\n", title)
	}
	return writeJSON(color.Output, data)
}

// PrintRecord writes a flat record: key: value lines, a Field/Value table, or JSON
func PrintRecord(title string, record map[string]interface{}) error {
	switch GetOutputFormat() {
	case FormatJSON:
		return writeJSON(color.Output, record)
	case FormatTable:
		rows := make([][]string, 0, len(record))
		for _, k := range sortedKeys(record) {
			rows = append(rows, []string{k, fmt.Sprintf("%v", record[k])})
		}
		writeTable(color.Output, []string{"Field", "Value"}, rows)
		return nil
	}
	if title != "" {
		fmt.Fprintf(color.Output, "%s:\n", title)
	}
	bold := color.New(color.Bold)
	for _, key := range sortedKeys(record) {
		bold.Fprint(color.Output, key+": ")
		fmt.Fprintf(color.Output, "%v\n", record[key])
	}
	return nil
}

// PrintTable renders rows as an aligned table, or as JSON objects keyed by
// header when --output json is set
func PrintTable(headers []string, rows [][]string) error {
	if GetOutputFormat() == FormatJSON {
		return writeJSON(color.Output, rowObjects(headers, rows))
	}
	writeTable(color.Output, headers, rows)
	return nil
}

func PrintSuccess(msg string, args ...interface{}) {
	color.New(color.FgGreen).Printf(msg+"\n", args...)
}

func PrintError(msg string, args ...interface{}) {
	color.New(color.FgRed).Printf("Error: "+msg+"\n", args...)
}

func PrintInfo(msg string, args ...interface{}) {
	color.New(color.FgCyan).Printf(msg+"\n", args...)
}

func PrintWarning(msg string, args ...interface{}) {
	color.New(color.FgYellow).Printf("Warning: "+msg+"\n", args...)
}

func writeJSON(w io.Writer, data interface{}) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func rowObjects(headers []string, rows [][]string) []map[string]string {
	objects := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				obj[h] = row[i]
			}
		}
		objects = append(objects, obj)
	}
	return objects
}

func writeTable(out io.Writer, headers []string, rows [][]string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		bold.Fprint(w, h)
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

func sortedKeys(record map[string]interface{}) []string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
