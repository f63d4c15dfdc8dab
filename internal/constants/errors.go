package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIKey         = errors.New("no API key configured, use 'airrecord login' or set " + APIKeyEnv)
	ErrNoBaseID         = errors.New("no base configured, pass --base or set base in the config file")
	ErrUnknownConfigKey = errors.New("unknown configuration key")
)

// Argument parsing errors.
var (
	ErrInvalidFieldAssignment = errors.New("invalid field assignment, expected name=value")
	ErrInvalidSort            = errors.New("invalid sort, expected field[:asc|desc]")
	ErrInvalidOutputFormat    = errors.New("invalid output format")
	ErrNoFieldsGiven          = errors.New("at least one --field is required")
	ErrMergeFieldsRequired    = errors.New("--merge-on is required for upsert")
	ErrUnsupportedImportFile  = errors.New("unsupported import file, expected .json, .yaml or .yml")
	ErrEmptyAPIKey            = errors.New("API key cannot be empty")
)
