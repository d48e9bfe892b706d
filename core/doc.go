// Package core provides the object model, syntax and cross-reference
// machinery shared by the rest of pdfstore.
//
// # Object Types
//
// The eight basic object kinds are implemented as types satisfying the
// Object interface:
//
//   - [Null], [Bool], [Int], [Real]
//   - [String] - raw bytes of a literal or hexadecimal string
//   - [Name] - a name without its leading slash
//   - [Array], [Dict]
//
// [Stream] is a dictionary plus raw bytes and [IndirectRef] a reference to a
// numbered object. [Clone] deep-copies any of them.
//
// # Parsing and Writing
//
// [Lexer] tokenizes an in-memory byte range and can search backwards for
// markers such as startxref. [Parser] builds objects and indirect objects on
// top of it; stream lengths stored as references are followed through a
// [ResolveFunc]. [Marshal], [WriteObject] and [WriteIndirectObject] write
// objects back in the syntax the parser reads.
//
// # Cross-Reference Tables
//
// [XRefTable] maps object numbers to [XRefEntry] values. Update sections are
// decoded with [ReadXRefSection] (classic tables, cross-reference streams and
// hybrid files) and merged newest first with [XRefTable.AddEntriesFrom], which
// never overwrites an entry that is already set. [WriteXRefTable] and
// [EncodeXRefStream] produce new sections.
//
// # Object Streams
//
// [ObjectStream] reads the objects packed in a /Type /ObjStm stream and
// [ObjectStreamBuilder] packs new ones.
package core
