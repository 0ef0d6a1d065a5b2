package errors

import (
	stderrors "errors"
	"maps"
	"strconv"

	"github.com/louisbranch/rollable/internal/platform/errors/i18n"
)

// Localize renders err for a user in locale. Domain errors use the message
// catalog with their metadata and position; other errors use Error().
func Localize(err error, locale string) string {
	if err == nil {
		return ""
	}
	var domainErr *Error
	if !stderrors.As(err, &domainErr) {
		return err.Error()
	}
	metadata := maps.Clone(domainErr.Metadata)
	if metadata == nil {
		metadata = map[string]string{}
	}
	if pos, ok := GetPosition(err); ok {
		metadata["Position"] = strconv.Itoa(pos)
	}
	return i18n.GetCatalog(locale).Format(string(domainErr.Code), metadata)
}
