/*
Package memo provides the process-wide memoization cache used by the rendering
pipeline. Every expensive content-generation step (template render, markdown
compile, stylesheet compile, data-file parse) is wrapped so that it runs at
most once per distinct input, and concurrent requests for the same input share
one in-flight computation.

A Cache is an explicitly owned value: create one with New and pass it to the
loaders and renderers that need it. Tests create isolated instances.
*/
package memo
