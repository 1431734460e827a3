/*
Chainsyncd keeps a local block chain in sync with blocks arriving in any
order. It connects every block whose parent is known, holds back the rest
until their ancestry arrives, and keeps the chain with the most cumulative
work as the best chain.

Usage:

	chainsyncd [OPTIONS]

For an up-to-date help message:

	chainsyncd --help

The long form of all option flags (except -C) can be specified in a configuration
file that is parsed when chainsyncd starts up. By default, the configuration
file is located at ~/.chainsyncd/chainsyncd.conf on POSIX-style operating
systems and %LOCALAPPDATA%\chainsyncd\chainsyncd.conf on Windows. The -C
(--configfile) flag can be used to override this location.

Blocks are fed to the daemon as block files with --import, and the state of
the best chain is exported as prometheus metrics with --metricslisten.
*/
package main
