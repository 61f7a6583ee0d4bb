// Package addressbook reads abook address books and extracts the email
// addresses stored in them.
//
// An abook file is INI-like text: every contact is a "[n]" section holding
// "key = value" lines. Only the "email" key is consulted. It may carry several
// addresses separated by commas.
package addressbook

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-ini/ini"
	"github.com/migadu/abook2procmail/consts"
	"github.com/migadu/abook2procmail/pkg/errors"
)

// EmailKey is the record field holding the contact's addresses.
const EmailKey = "email"

// EmailSeparator separates multiple addresses inside the email field.
const EmailSeparator = ","

// Field is a single key/value line of a record.
type Field struct {
	Key   string
	Value string
}

// Record is one section of the address book.
type Record struct {
	Name   string
	Fields []Field
}

// Get returns the value of key and whether the record has it.
func (r Record) Get(key string) (string, bool) {
	key = strings.ToLower(key)
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Emails splits the record's email field. Tokens are not trimmed, so
// "a@b.com, c@d.com" yields " c@d.com" as the second address.
func (r Record) Emails() []string {
	value, ok := r.Get(EmailKey)
	if !ok {
		return nil
	}
	return strings.Split(value, EmailSeparator)
}

// AddressBook is the list of records in file order.
type AddressBook struct {
	Records []Record
}

// Emails returns every address of every record, in record order and then in
// field order. Duplicates are kept.
func (b *AddressBook) Emails() []string {
	var addrs []string
	for _, r := range b.Records {
		addrs = append(addrs, r.Emails()...)
	}
	return addrs
}

// loadOptions keep values close to what abook wrote. go-ini still unquotes
// values wrapped in backticks or triple double quotes.
var loadOptions = ini.LoadOptions{
	InsensitiveKeys:         true,
	IgnoreInlineComment:     true,
	IgnoreContinuation:      true,
	PreserveSurroundedQuote: true,
	AllowNonUniqueSections:  true,
}

// Parse decodes address book text. Sections keep their file order. Keys
// before the first section header and repeated section names are rejected.
// Keys of a [DEFAULT] section apply to every record that lacks them.
func Parse(data []byte) (*AddressBook, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, err
	}

	// The first section collects whatever precedes the first header.
	sections := f.Sections()
	if len(sections) > 0 {
		if keys := sections[0].Keys(); len(keys) > 0 {
			return nil, fmt.Errorf("key %q outside of any section", keys[0].Name())
		}
		sections = sections[1:]
	}

	book := &AddressBook{}
	var defaults []Field
	seen := make(map[string]bool)
	for _, section := range sections {
		fields := sectionFields(section)

		if section.Name() == ini.DefaultSection {
			defaults = mergeFields(defaults, fields)
			continue
		}
		if seen[section.Name()] {
			return nil, fmt.Errorf("section %q already exists", section.Name())
		}
		seen[section.Name()] = true

		book.Records = append(book.Records, Record{Name: section.Name(), Fields: fields})
	}

	for i := range book.Records {
		for _, d := range defaults {
			if _, ok := book.Records[i].Get(d.Key); !ok {
				book.Records[i].Fields = append(book.Records[i].Fields, d)
			}
		}
	}
	return book, nil
}

func sectionFields(section *ini.Section) []Field {
	var fields []Field
	for _, key := range section.Keys() {
		fields = append(fields, Field{
			Key:   strings.ToLower(key.Name()),
			Value: key.Value(),
		})
	}
	return fields
}

// mergeFields overrides existing keys of base and appends new ones.
func mergeFields(base, fields []Field) []Field {
	for _, f := range fields {
		replaced := false
		for i := range base {
			if base[i].Key == f.Key {
				base[i].Value = f.Value
				replaced = true
				break
			}
		}
		if !replaced {
			base = append(base, f)
		}
	}
	return base
}

// Load reads and parses the address book at path. The path must name an
// existing regular file.
func Load(path string) (*AddressBook, error) {
	info, err := os.Stat(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrPermission) {
			return nil, errors.NewPathError("read", path, consts.ErrInputPermissionDenied, err)
		}
		return nil, errors.NewPathError("read", path, consts.ErrInputNotFound, err)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.NewPathError("read", path, consts.ErrInputNotFound, nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrPermission) {
			return nil, errors.NewPathError("read", path, consts.ErrInputPermissionDenied, err)
		}
		return nil, errors.NewPathError("read", path, consts.ErrInputReadFailure, err)
	}

	book, err := Parse(data)
	if err != nil {
		return nil, errors.NewPathError("parse", path, consts.ErrAddressBookMalformed, err)
	}
	return book, nil
}

// ExtractEmails loads the address book at path and returns its addresses.
func ExtractEmails(path string) ([]string, error) {
	book, err := Load(path)
	if err != nil {
		return nil, err
	}
	return book.Emails(), nil
}
