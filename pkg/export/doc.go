// Package export turns a remote MediaWiki into a local XML dump.
//
// An Exporter discovers the api.php endpoint, fetches site metadata,
// enumerates every real namespace and streams the pages as a MediaWiki
// export document (export-0.11) in exact enumeration order. With a save
// directory configured, uploads from the File namespace are downloaded
// alongside the XML.
//
// # Basic Usage
//
//	opts := export.Options{
//		WikiURL: "https://wiki.example.org/wiki/Main_Page",
//		History: false,
//		SaveDir: "files",
//	}
//	exporter, err := export.New(opts, os.Stdout)
//	if err != nil {
//		log.Fatal().Err(err).Msg("Invalid options")
//	}
//
//	summary, err := exporter.Run(ctx)
//	if err != nil {
//		log.Fatal().Err(err).Msg("Export failed")
//	}
//	if summary.Failed() {
//		os.Exit(2)
//	}
//
// Failed batches and abandoned namespaces never abort the run; their
// titles appear as tombstone pages and the summary reports them. Only
// configuration, endpoint discovery and site metadata errors are fatal.
package export
