// Package generator renders labs into answer templates.
//
// Two formats are supported. Markdown templates have the lab as a level one
// heading, every section that has questions as a level two heading and each
// question as a bullet. Word templates (.docx) follow the same outline using the
// Heading 1, Heading 2 and List Bullet paragraph styles. Sections without
// questions are left out of both.
package generator
