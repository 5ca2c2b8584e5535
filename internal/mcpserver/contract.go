package mcpserver

// EmbedSyntaxContract describes how markdown content references the media
// arrays of its content item.
const EmbedSyntaxContract = `# Embed Syntax Contract

Markdown content may reference the media of its own content item by
position. Each item carries three ordered arrays: ` + "`images`" + `, ` + "`videos`" + `
and ` + "`externalLinks`" + `. Indices are zero-based.

## Tokens

| Embed          | Syntax                      | Notes                          |
|----------------|-----------------------------|--------------------------------|
| Image          | ` + "`![image:0]`" + `                | ` + "`![image:0 \"Alt text\"]`" + ` sets alt text |
| Video          | ` + "`![video:1]`" + `                | ` + "`![video:1 \"Caption\"]`" + ` sets a caption |
| External link  | ` + "`[link:2]`" + `                  | ` + "`[link:2 \"Custom text\"]`" + ` overrides the title |

## Rules

1. Image and video tokens MUST start with ` + "`!`" + `. ` + "`[image:0]`" + ` is reported as a warning.
2. The index MUST be a non-negative integer smaller than the length of the
   matching array. Out-of-range indices are errors and updates carrying
   them are rejected.
3. Indices are ordinal: reordering or removing media changes what existing
   embeds point at. Check usage before reordering.
4. Custom text is a double-quoted string after the index; it may not contain
   ` + "`\"`" + ` or ` + "`]`" + `.
5. ` + "`<iframe>`" + ` embeds are allowed only from known hosts (YouTube, Vimeo,
   CodePen, CodeSandbox, GitHub). Other hosts produce a warning.

## Example

` + "```" + `markdown
# Project overview

![image:0 "Hero shot"]

The build process is shown below.

![video:0]

Source code lives in [link:0 "the repository"].
` + "```" + `
`
