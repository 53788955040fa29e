package config

import (
	"strconv"
	"time"

	"github.com/ignatij/sheetflow/pkg/schema"
	"github.com/ignatij/sheetflow/pkg/sheets"
	"github.com/pkg/errors"
)

const envPrefix = "SHEETFLOW_"

// applyEnv overrides fields from SHEETFLOW_* variables that are set.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		return lookup(envPrefix + key)
	}

	if v, ok := get("ENDPOINT_URL"); ok {
		c.EndpointURL = v
	}
	if v, ok := get("ENDPOINT_PREFIX"); ok {
		c.EndpointPrefix = v
	}
	if v, ok := get("SHEET_URL"); ok {
		c.SheetURL = v
	}
	if v, ok := get("TRANSPORT_MODE"); ok {
		c.TransportMode = sheets.TransportMode(v)
	}
	if v, ok := get("FORMAT_MODE"); ok {
		c.FormatMode = sheets.FormatMode(v)
	}
	if v, ok := get("SUCCESS_MESSAGE"); ok {
		c.SuccessMessage = sheets.SuccessMessageMode(v)
	}
	if v, ok := get("TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "parse %sTIMEOUT", envPrefix)
		}
		c.Timeout = d
	}
	if v, ok := get("SCHEMA_REVISION"); ok {
		c.SchemaRevision = schema.Revision(v)
	}
	if v, ok := get("AUTO_HOURS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "parse %sAUTO_HOURS", envPrefix)
		}
		c.AutoHours = b
	}
	if v, ok := get("JOURNAL_DSN"); ok {
		c.JournalDSN = v
	}
	if v, ok := get("PORT"); ok {
		c.Port = v
	}
	return nil
}
