package repo

import (
	"database/sql/driver"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"modernc.org/sqlite"
)

// foldFunc is the SQL name of the Turkish lower-casing function. SQLite's
// own LOWER only folds ASCII.
const foldFunc = "tr_lower"

var (
	likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	dotlessI    = strings.NewReplacer("ı", "i")
)

func init() {
	err := sqlite.RegisterDeterministicScalarFunction(foldFunc, 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return fold(v), nil
		case []byte:
			return fold(string(v)), nil
		}
		return args[0], nil
	})
	if err != nil {
		panic(err)
	}
}

// fold lower-cases s with Turkish rules and then treats ı as i, so "Ilım",
// "ILIM" and "İlim" all match "ilim". A Caser keeps state, so each call gets
// its own.
func fold(s string) string {
	return dotlessI.Replace(cases.Lower(language.Turkish).String(s))
}

// titleMatch returns a condition matching col case-insensitively against
// search as a literal substring, with its argument.
func titleMatch(col, search string) (string, any) {
	return foldFunc + `(` + col + `) LIKE ? ESCAPE '\'`, "%" + likeEscaper.Replace(fold(search)) + "%"
}
