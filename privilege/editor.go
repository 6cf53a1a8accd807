package privilege

import (
	"fmt"
	"sort"
	"strings"
)

// editorComment is the fixed explanatory header every rendered editor
// document starts with.
const editorComment = `# Welcome to the privilege editor.
# Each line defines what privileges a single user has on a single database.
# The first two columns respectively represent the database name and the user, and the remaining columns are the privileges.
# If the user should have a certain privilege, write 'Y', otherwise write 'N'.
#
# Lines starting with '#' or '//' are comments and will be ignored.
`

// headerFields returns the thirteen human-readable column names, in the
// fixed FieldNames order, that both the rendered header line and the
// header-detection logic in ParseEditorDocument are built from.
func headerFields() []string {
	names := make([]string, len(FieldNames))
	for i, f := range FieldNames {
		names[i] = HumanReadableName(f)
	}
	return names
}

// RenderEditorDocument renders rows as the line-oriented, space-aligned text
// document the interactive editor workflow presents to the caller. Rows are
// emitted in their natural (database, user) order. If rows is empty, a
// single commented-out example line is emitted instead, using
// "<username>_db"/"<username>_user" (or database, if given, for the
// database column) so the caller has something concrete to copy from.
func RenderEditorDocument(rows []Row, username string, database string) string {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Database != sorted[j].Database {
			return sorted[i].Database < sorted[j].Database
		}
		return sorted[i].User < sorted[j].User
	})

	exampleDB := database
	if exampleDB == "" {
		exampleDB = fmt.Sprintf("%s_db", username)
	}
	exampleUser := fmt.Sprintf("%s_user", username)

	dbWidth := len("Database")
	userWidth := len("User")
	for _, r := range sorted {
		dbWidth = max(dbWidth, len(r.Database))
		userWidth = max(userWidth, len(r.User))
	}
	if len(sorted) == 0 {
		dbWidth = max(dbWidth, len(exampleDB))
		userWidth = max(userWidth, len(exampleUser))
	}

	header := headerFields()
	header[0] = padRight(header[0], dbWidth)
	header[1] = padRight(header[1], userWidth)

	var b strings.Builder
	b.WriteString(editorComment)
	b.WriteString(strings.Join(header, " "))
	b.WriteString("\n")

	if len(sorted) == 0 {
		example := Row{
			Database: exampleDB, User: exampleUser,
			Select: true, Insert: true, Update: true, Delete: true,
		}
		b.WriteString("# ")
		b.WriteString(renderRow(example, dbWidth, userWidth))
	} else {
		for i, r := range sorted {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(renderRow(r, dbWidth, userWidth))
		}
	}

	return b.String()
}

func renderRow(r Row, dbWidth, userWidth int) string {
	cols := make([]string, 0, len(FieldNames))
	cols = append(cols, padRight(r.Database, dbWidth))
	cols = append(cols, padRight(r.User, userWidth))
	for _, field := range PrivilegeFieldNames {
		cols = append(cols, padRight(yn(r.Get(field)), len(HumanReadableName(field))))
	}
	return strings.TrimRight(strings.Join(cols, " "), " ")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// ParseError is a structural failure while parsing an editor document, with
// enough context (the offending line number and text) to locate the
// problem in an interactive editor.
type ParseError struct {
	Line    int
	Text    string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s (%q)", e.Line, e.Message, e.Text)
}

// ParseEditorDocument parses an edited document back into rows, tolerating
// blank lines, "#"/"//" comments, and a single header line matching
// headerFields() in any position. Any other line MUST tokenize into exactly
// thirteen whitespace-separated fields; deviation produces a *ParseError
// naming the line and the problem.
func ParseEditorDocument(content string) ([]Row, error) {
	header := headerFields()

	var rows []Row
	for i, rawLine := range strings.Split(content, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(rawLine)

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		fields := strings.Fields(line)
		if matchesHeader(fields, header) {
			continue
		}

		if len(fields) != len(FieldNames) {
			return nil, &ParseError{
				Line: lineNo, Text: line,
				Message: fmt.Sprintf("expected %d fields, found %d", len(FieldNames), len(fields)),
			}
		}

		row := Row{Database: fields[0], User: fields[1]}
		values := row.fieldPointers()
		for i, field := range PrivilegeFieldNames {
			value, ok := revYN(strings.ToUpper(fields[2+i]))
			if !ok {
				return nil, &ParseError{
					Line: lineNo, Text: line,
					Message: fmt.Sprintf("expected Y or N for %s, found %q", HumanReadableName(field), fields[2+i]),
				}
			}
			*values[i] = value
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func matchesHeader(fields, header []string) bool {
	if len(fields) != len(header) {
		return false
	}
	for i := range fields {
		if fields[i] != header[i] {
			return false
		}
	}
	return true
}
