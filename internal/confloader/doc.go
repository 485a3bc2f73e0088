// Package confloader provides configuration loading mechanism.
//
// It uses Koanf to merge configuration from multiple sources with
// priority: Env > File > Default. Configuration is read once at startup;
// there is no file watching or hot reload.
package confloader
