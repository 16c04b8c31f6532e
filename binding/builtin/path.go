package builtin

import (
	"os"
	"path/filepath"

	"github.com/ardnew/mung"
)

// Prefix prepends prefix items to the delimited path list, removing
// duplicates.
func Prefix(list string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// PrefixIf is Prefix keeping only the items accepted by predicate.
func PrefixIf(
	list string,
	predicate func(string) bool,
	prefix ...string,
) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(predicate),
	).String()
}

func pathAbs(path string) (string, error) { return filepath.Abs(path) }

func pathRel(from, to string) (string, error) { return filepath.Rel(from, to) }

func pathJoin(elem ...string) string { return filepath.Join(elem...) }
