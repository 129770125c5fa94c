package alias

import "fmt"

// ErrRecursion reports a DBLIST entry that names an alias file already
// being resolved. The entry is dropped.
type ErrRecursion struct {
	Alias string
	Entry string
}

func (e *ErrRecursion) Error() string {
	return fmt.Sprintf("alias %s: DBLIST entry %q recurses, dropped", e.Alias, e.Entry)
}

// ErrEmpty reports an alias file that resolved to no volumes.
type ErrEmpty struct {
	Alias string
}

func (e *ErrEmpty) Error() string {
	return fmt.Sprintf("alias %s resolved to no volumes", e.Alias)
}
