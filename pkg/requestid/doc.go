// Package requestid attaches a request id to every HTTP request for log
// correlation across services.
//
//	router.Use(requestid.Middleware)
//
// Handlers recover the id with requestid.FromContext or log it directly
// via requestid.LogAttr.
package requestid
