// Package alias resolves database names into ordered lists of volumes.
//
// A name resolves to an alias file (.pal/.nal) or directly to a volume index
// (.pin/.nin). Alias files are line oriented:
//
//	# comment
//	TITLE    Swiss-Prot subset
//	DBLIST   swissprot pdbaa "dir with spaces/db"
//	GILIST   subset.gil
//	OIDLIST  subset.msk
//	FIRST_OID 10
//	LAST_OID  19
//	LENGTH   123456
//	NSEQ     42
//	MAXLEN   980
//	MEMB_BIT 3
//
// DBLIST entries may themselves be alias files. Resolution tracks the alias
// files on the current path and drops entries that would recurse, reporting
// them as *ErrRecursion warnings.
package alias
