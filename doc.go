/*Package tributary is a batch ETL pipeline that reshapes semi-structured
catalog and playback-event JSON into partitioned Parquet relations.

The pipeline owns no relational machinery of its own: it expresses its
transforms against a small engine capability (read a location into a
relation; filter, project, deduplicate and join it; write it back) and
delegates execution to the in-process engine behind that interface.
Storage is equally abstract -- inputs and outputs live on a local disk or
in S3, selected by the configured locations.

A run is two strictly sequential stages. The catalog stage derives the
items and producers relations from raw catalog records. The event stage
filters play events, derives the actors and time relations, re-reads the
freshly written catalog relations from durable storage, and joins them
into the play_facts relation. Every relation is fully rewritten per run;
writes are staged and swapped into place so a failed run leaves the
previous output intact.
*/
package tributary
