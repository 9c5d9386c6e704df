package dataset

// NormalizeLandscape fills the computed fields of a decoded landscape so that
// every pipeline version looks the same to consumers:
//   - metadata.n_points falls back from num_points to n_points to len(points)
//   - metadata.n_clusters falls back from num_clusters to len(clusters)
//   - each point gets start_time, end_time and a numeric cluster
//   - missing speaker centroids become zero vectors
//
// It modifies l in place and returns it.
func NormalizeLandscape(l *Landscape) *Landscape {
	switch {
	case l.Metadata.NumPoints != 0:
		l.Metadata.NPoints = l.Metadata.NumPoints
	case l.Metadata.NPoints != 0:
	default:
		l.Metadata.NPoints = len(l.Points)
	}

	if l.Metadata.NumClusters != 0 {
		l.Metadata.NClusters = l.Metadata.NumClusters
	} else {
		l.Metadata.NClusters = len(l.Clusters)
	}

	for i := range l.Points {
		p := &l.Points[i]
		p.StartTime = p.Time
		p.EndTime = p.Time + p.Duration
		p.Cluster = clusterNumber(p.ClusterID)
	}

	if l.SpeakerCentroids == nil {
		l.SpeakerCentroids = &SpeakerCentroids{}
	}
	return l
}
