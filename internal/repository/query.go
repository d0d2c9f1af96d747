package repository

import (
	"strconv"
	"strings"
)

// where accumulates AND-ed conditions with numbered placeholders.
// Every "?" in a condition refers to the one argument it binds.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) raw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns the clause plus args.
func (w *where) page(limit, offset int) (string, []interface{}) {
	n := len(w.args)
	args := append(append([]interface{}{}, w.args...), limit, offset)
	return " LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2), args
}
