/*
linkedin is a package for writing LinkedIn REST API integrations using the
typical 3-legged OAuth2 authorization code flow

Primary types provided by the package

* Config: provides the configuration for a client (for example: client
id/secret, callback URL, permission scopes to request, request timeouts, etc)

* Client: provides integration with the API using the OAuth2 authorization
code flow.  The client provides capabilities like: generating an authorization
URL, exchanging authorization codes for access tokens, and making REST calls
in json or xml format.

* Response: represents the outcome of an API call.  It carries the raw
payload along with the decoded json object or parsed xml document.

* AccessToken: represents an OAuth2 access_token

Examples

* Authorization code CLI:
https://github.com/go-social/linkedin/tree/main/examples/authcode_cli/
*/
package linkedin
