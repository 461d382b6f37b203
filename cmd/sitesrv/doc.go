/*
sitesrv serves the results of the pipeline, read only, as JSON.

Usage:
 sitesrv [options]

Flags:
  -c file
	YAML configuration.
  -l addr
	Listen address, instead of the one in the configuration.

Routes are /health, /sugars and /sugars/{SUGAR}. Results are read from
disk on every request.
*/
package main
