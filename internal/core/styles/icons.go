package styles

// Tip: To find icons use https://github.com/loichyan/nerdfix

var (
	IconLink      = ""          // nf-fa-link
	IconImage     = ""          // nf-fa-image
	IconVideo     = ""          // nf-fa-video_camera
	IconChat      = ""          // nf-fa-comments
	IconSearch    = ""          // nf-fa-search
	IconExport    = ""          // nf-fa-download
	IconBell      = ""          // nf-fa-bell
	IconUser      = ""          // nf-fa-user
	IconAssistant = "\U000F06A9" // nf-md-robot
	IconCheck     = ""          // nf-fa-check_square
	IconSquare    = ""          // nf-fa-square_o
	IconInfo      = ""          // nf-fa-info_circle
	IconWarning   = ""          // nf-fa-warning
	IconError     = ""          // nf-fa-times_circle
)
