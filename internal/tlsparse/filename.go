package tlsparse

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hakim/tlsgrind/internal/models"
)

// ErrUnusableFilename is returned for files not named
// <ip>-<port>-<vendor>-<product>.txt
var ErrUnusableFilename = errors.New("unusable report filename")

// filenamePattern keeps the historical four-group split: the vendor is a
// single \w+ token, the product takes the rest up to ".txt".
var filenamePattern = regexp.MustCompile(`(\d+.\d+.\d+.\d+)-(\d+)-(\w+)-(.+).txt`)

// DecodeFilename extracts the host key from a report filename. Underscores
// in vendor and product are turned into spaces.
func DecodeFilename(name string) (models.HostKey, error) {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return models.HostKey{}, fmt.Errorf("%w: %s", ErrUnusableFilename, name)
	}

	return models.HostKey{
		IP:      m[1],
		Port:    m[2],
		Vendor:  strings.ReplaceAll(m[3], "_", " "),
		Product: strings.ReplaceAll(m[4], "_", " "),
	}, nil
}

// EncodeFilename builds the report filename for a host key. It is the
// inverse of DecodeFilename for keys without underscores or hyphens in
// vendor.
func EncodeFilename(k models.HostKey) string {
	return fmt.Sprintf("%s-%s-%s-%s.txt",
		k.IP, k.Port,
		strings.ReplaceAll(k.Vendor, " ", "_"),
		strings.ReplaceAll(k.Product, " ", "_"))
}
