// Package transit holds the domain model shared by every other package:
// stops, departures, trips, routes, patterns and journey plans as they come
// back from the OTP GraphQL endpoint and the bundled dataset.
//
// Stop ids are stable within one dataset release and are the only safe join
// key across sources. Times on departures are seconds since local midnight
// and may exceed 86400 for services running past midnight.
package transit
