/*
Package templating loads and executes the site's html/template views.

The views directory holds full page templates (*.tmpl.html), partials
(*.part.html) that every page may include, and one template per workshop
under events/. Templates are reloaded from disk with Refresh, so views can be
edited without restarting the server.

Besides a handful of arithmetic and logic helpers, the function map exposes
link helpers bound to the catalog: primaryLink, pageLink, shortLink and
eventLinks build the URLs of an event's pages the same way the server routes
them, honoring the export suffix when the manager is configured for a static
build.
*/
package templating
