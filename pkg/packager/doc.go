// Package packager writes packs into installer archives.
//
// The main archive is a zip file holding one stored entry per pack
// (resources/packs/pack-<name>) plus the installer resources. Inside a pack
// entry each file is an independent compressed segment located by its
// offset and stored size. Files whose content already appears in the same
// archive are recorded as back-references instead of being written again.
//
// When pack200 handling is enabled, *.jar payloads are deferred and written
// after the regular packs, each to its own entry
// (resources/packs/pack200-<id>), because their decoder consumes a whole
// stream.
//
// External packs get their own archive, <name>.pack-<pack>.jar, next to
// the main one.
package packager
