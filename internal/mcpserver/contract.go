package mcpserver

// FormatURI is the resource describing the stored letter layout.
const FormatURI = "letterbox://letter-format"

// LetterFormat describes a stored letter for LLM consumers.
const LetterFormat = `# Letterbox Letter Format

All letters live under one storage key as a single JSON array, in the order
they were written. The whole array is rewritten on every change.

## Fields

| field     | set by  | notes                                        |
|-----------|---------|----------------------------------------------|
| id        | server  | UUIDv7; the leading bits are the write time  |
| title     | writer  | required, surrounding whitespace is trimmed  |
| content   | writer  | required, plain text; HTML is shown verbatim |
| author    | writer  | required                                     |
| date      | server  | creation date, already formatted for display |

## Rules

1. **All three writer fields are required.** A blank field rejects the letter
   and nothing is stored.
2. **Letters are never edited.** Delete and write a new one instead.
3. **Ids are opaque.** Use the id from ` + "`" + `list_letters` + "`" + ` to delete.

## Example

` + "```" + `json
[
  {
    "id": "019244f2-7c1e-7b3a-9d52-6f1e2a3b4c5d",
    "title": "Happy Birthday!",
    "content": "Hope your day is wonderful.",
    "author": "Sam",
    "date": "8/8/2026"
  }
]
` + "```" + `
`
