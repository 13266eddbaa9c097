// Package langs implements the per-language plugin lifecycle: parsing
// a plugin's spec.toml and rootfs archive, compiling a submitted
// source into a Runner, running that Runner against test-case input
// under the plugin's resource budget, and classifying the resulting
// corpse into a verdict. Registry discovers plugins at startup and
// resolves a request's language_id to its Plugin.
package langs
