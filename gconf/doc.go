/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each package owns a single configuration object saved under the "_c:<pkg>"
key. Configurations are validated before every write and can be loaded from
the "conf" section of the genesis file.
*/
package gconf
