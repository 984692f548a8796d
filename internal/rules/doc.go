// Package rules models the ordered destination rules used to sort files and
// resolves a candidate file against them.
//
// A RuleSet holds extension rules (exact, case-insensitive match on the
// trailing extension) and at most a few script rules backed by a ScriptHook.
// The first matching rule wins. Rule files are JSON or YAML documents of the
// form {"rules": {".txt": "TextFiles"}} and keep their document order.
package rules
