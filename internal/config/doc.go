// Package config loads the YAML configuration for tastystream.
//
// ${VAR} references are expanded from the environment before parsing, so
// credentials can stay out of the file:
//
//	api:
//	  password: ${TASTY_PASSWORD}
package config
