// Package domain models fuel station stock snapshots scraped from the
// "guía de saldos" page.
//
// # Data Source
//
// The upstream page is a PHP view that dumps one associative array per
// station with var_dump, surrounded by free-form HTML and prose. A typical
// fragment looks like:
//
//	array(5) {
//	  ["un"]=>
//	  int(110)
//	  ["producto_id"]=>
//	  int(134)
//	  ["fecha"]=>
//	  string(19) "2024-01-01 10:00:00"
//	  ["saldo"]=>
//	  string(4) "7675"
//	  ...
//	}
//
// Line breaks and indentation vary between page revisions, so fragments are
// collapsed to a single line before their fields are read. Only flat arrays
// occur; the locator never tries to balance nested braces.
//
// Field conventions:
//
//	un          station identifier. Either int(N) or string(L) "N";
//	            int(N) wins when both forms are present.
//	producto_id product family, int(N). 134 is diesel.
//	fecha       measurement time as written by the source, kept verbatim.
//	saldo       remaining stock in litres, string(L) "N".
//
// # Contextual Estimates
//
// Below each fragment the page prints prose such as "cantidad de vehiculos
// estimada: 45.5" and "la fila avanza cada 12 minutos". These are read from
// the 1000 characters following the fragment start and default to zero.
//
// # Reconciliation
//
// Every cycle emits exactly one [StationRecord] per [Registry] entry, in
// registry order. Stations without a usable fragment are reported as
// [StatusDepleted] with zero stock and the retrieval time as measurement
// time. Fragments for stations outside the registry are dropped. See
// [Reconcile].
package domain
